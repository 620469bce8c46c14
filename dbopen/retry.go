package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const maxRetries = 3

// IsBusy reports whether err is an SQLite BUSY/locked condition.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// ExecRetry runs a single statement, retrying up to three times with a
// 50/100/150 ms backoff while the database is busy. Two pagetoc processes
// sharing a preference file contend only on these short writes.
func ExecRetry(ctx context.Context, db *sql.DB, query string, args ...any) error {
	var err error
	for i := range maxRetries {
		if _, err = db.ExecContext(ctx, query, args...); err == nil {
			return nil
		}
		if !IsBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("dbopen: retry cancelled: %w", ctx.Err())
		case <-time.After(time.Duration(50*(i+1)) * time.Millisecond):
		}
	}
	return fmt.Errorf("dbopen: still busy after %d attempts: %w", maxRetries, err)
}
