// Package lock provides per-key mutual exclusion for read-modify-write cycles
// on station and user records.
package lock

import (
	"context"
	"strconv"
)

// Locker acquires an exclusive lock on key. The returned func releases it and
// is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// StationKey is the lock key for a station record.
func StationKey(id int64) string {
	return "station:" + strconv.FormatInt(id, 10)
}

// UserKey is the lock key for a user record.
func UserKey(id string) string {
	return "user:" + id
}
