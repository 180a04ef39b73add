// Package database provides PostgreSQL-backed persistence for the dashboard
// core: web-login sessions, single-use config tokens, guild directory
// snapshots, the audit trail and the test-message record.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // File source driver for migrations
	_ "github.com/lib/pq"                                // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/config"
)

// DB wraps the pooled database connection. It is constructed once in main
// and passed to every collaborator; there is no process-wide singleton.
type DB struct {
	*sql.DB
	logger          *zap.Logger
	sessionLifetime time.Duration
}

// NewDB opens a pooled database connection and verifies it with a ping.
// Pool bounds come from the configuration (defaults 1 idle / 20 open).
func NewDB(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return &DB{
		DB:              sqlDB,
		logger:          logger,
		sessionLifetime: DefaultSessionLifetime,
	}, nil
}

// SetSessionLifetime overrides the fallback session lifetime applied when a
// provider token carries no expiry. Non-positive values are ignored.
func (db *DB) SetSessionLifetime(d time.Duration) {
	if d > 0 {
		db.sessionLifetime = d
	}
}

// Close closes all pooled connections. Operations after Close fail.
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// Health checks the database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// RunMigrations brings the schema up to date using golang-migrate.
// Running it against an already-migrated store is a no-op.
func (db *DB) RunMigrations(migrationsPath string) error {
	db.logger.Info("running database migrations", zap.String("path", migrationsPath))

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver instance: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		// ErrNoChange means the schema is already up to date
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("database schema is already up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		db.logger.Warn("failed to get migration version", zap.Error(err))
	} else if errors.Is(err, migrate.ErrNilVersion) {
		db.logger.Info("no migrations have been applied yet")
	} else {
		db.logger.Info("database migrations completed successfully",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
	}

	return nil
}

// CleanupExpired removes expired sessions and config tokens. Expiry is
// enforced at read time regardless; this only reclaims dead rows.
func (db *DB) CleanupExpired(ctx context.Context) error {
	if err := db.CleanupExpiredSessions(ctx); err != nil {
		return err
	}
	if err := db.CleanupExpiredTokens(ctx); err != nil {
		return err
	}
	return nil
}

// StartCleanupJob starts a background job that periodically removes
// expired sessions and tokens. It stops when ctx is cancelled.
func (db *DB) StartCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := db.CleanupExpired(ctx); err != nil {
					db.logger.Error("failed to cleanup expired rows", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	db.logger.Info("started cleanup job", zap.Duration("interval", interval))
}
