package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissions_HasAdministrator(t *testing.T) {
	tests := []struct {
		name        string
		permissions Permissions
		want        bool
	}{
		{"no permissions", 0, false},
		{"administrator only", PermissionAdministrator, true},
		{"administrator among others", PermissionAdministrator | 1<<11 | 1<<30, true},
		{"everything except administrator", ^PermissionAdministrator, false},
		{"send messages only", 1 << 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.permissions.HasAdministrator())
		})
	}
}

func TestUserGuild_CanManage(t *testing.T) {
	tests := []struct {
		name  string
		guild UserGuild
		want  bool
	}{
		{"owner without permissions", UserGuild{Owner: true}, true},
		{"administrator without ownership", UserGuild{Permissions: PermissionAdministrator}, true},
		{"owner and administrator", UserGuild{Owner: true, Permissions: PermissionAdministrator}, true},
		{"plain member", UserGuild{Permissions: 1 << 11}, false},
		{"zero value", UserGuild{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.guild.CanManage())
		})
	}
}
