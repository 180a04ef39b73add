package database

import "errors"

// ErrNotFound indicates the requested row is absent or expired. The two
// cases are deliberately indistinguishable: an expired session or token
// behaves exactly like one that never existed. Storage faults are returned
// as distinct wrapped errors so callers can tell an outage from a miss.
var ErrNotFound = errors.New("not found")
