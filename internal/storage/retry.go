package storage

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Contention budget for the single-writer file store: 50ms initial backoff,
// doubled on every retry, capped at 1s, at most 7 attempts.
const (
	busyInitialBackoff = 50 * time.Millisecond
	busyMaxBackoff     = time.Second
	busyMaxAttempts    = 7
)

// ErrBusy is returned when the store stayed write-locked through the whole
// retry budget.
var ErrBusy = errors.New("storage: database busy after retries")

// ErrDuplicateID is returned when a complaint insert hits the primary key.
var ErrDuplicateID = errors.New("storage: duplicate complaint id")

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("storage: not found")

// isBusy recognizes the transient lock errors SQLite surfaces under write
// contention. Postgres never produces these, so the retry loop is a no-op
// cost there.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

// isDuplicate recognizes a unique/primary-key violation across both backends.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// execWithRetry runs fn, retrying on transient lock contention with
// exponential backoff. Non-busy errors pass through untouched; exhaustion
// surfaces as ErrBusy.
func execWithRetry(fn func() error) error {
	delay := busyInitialBackoff
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		err := fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
		if delay > busyMaxBackoff {
			delay = busyMaxBackoff
		}
	}
	return ErrBusy
}
