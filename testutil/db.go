package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-pg/pg/v10"
)

var testDatabase = os.Getenv("GAVEL_TEST_DB")

// DatabaseAvailable reports whether a database is available for testing
func DatabaseAvailable() bool {
	return testDatabase != ""
}

// Database returns the connection string for connecting to the test database
func Database() string {
	return testDatabase
}

// testLockID serializes test processes that share one database. It is
// distinct from the advisory locks the application takes, so tests may run
// migrations while holding it.
const testLockID = 1001

// WaitForExclusiveDatabaseLock blocks until db holds the exclusive test lock.
// The returned release function gives the lock up again.
func WaitForExclusiveDatabaseLock(ctx context.Context, db *pg.DB) (func() error, error) {
	for {
		var acquired bool
		if _, err := db.QueryOneContext(ctx, pg.Scan(&acquired), `SELECT pg_try_advisory_lock(?)`, testLockID); err != nil {
			return nil, err
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	release := func() error {
		_, err := db.Exec(`SELECT pg_advisory_unlock(?)`, testLockID)
		return err
	}
	return release, nil
}

// WaitForExclusiveDatabase connects to the test database and blocks until it
// holds the exclusive test lock, giving the caller sole use of the database.
// The returned cleanup function releases the lock and closes the connection.
func WaitForExclusiveDatabase(ctx context.Context, tb testing.TB) (*pg.DB, func() error, error) {
	tb.Helper()

	opt, err := pg.ParseURL(Database())
	if err != nil {
		return nil, nil, err
	}
	// A single connection so the advisory lock and all subsequent queries
	// share one session.
	opt.PoolSize = 1

	db := pg.Connect(opt).WithContext(ctx)
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	release, err := WaitForExclusiveDatabaseLock(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	cleanup := func() error {
		if err := release(); err != nil {
			_ = db.Close()
			return err
		}
		return db.Close()
	}

	return db, cleanup, nil
}
