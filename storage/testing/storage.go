package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-pg/pg/v10"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/storage"
	"github.com/gavelhq/gavel/testutil"
)

// WaitForExclusiveMigratedStorage connects to the test database, migrates it
// to the latest schema if it is behind, and takes the exclusive test lock so
// the caller has the database to itself.
func WaitForExclusiveMigratedStorage(ctx context.Context, tb testing.TB, debugLogs bool) (*storage.Database, func() error) {
	name := tb.Name()
	if len(name) > storage.MaxPostgresNameLength {
		name = name[:storage.MaxPostgresNameLength]
	}

	db, err := storage.NewDatabase(ctx, testutil.Database(), 10, name, "public", false)
	require.NoError(tb, err)

	dbVersion, latest, err := db.GetSchemaVersions(ctx)
	require.NoError(tb, err)
	if dbVersion != latest {
		err = db.MigrateSchema(ctx)
		require.NoError(tb, err)
	}

	err = db.Connect(ctx)
	require.NoError(tb, err)

	if debugLogs {
		db.AsORM().AddQueryHook(&LoggingQueryHook{})
	}

	release, err := testutil.WaitForExclusiveDatabaseLock(ctx, db.AsORM())
	if err != nil {
		db.Close(ctx) // nolint: errcheck
		tb.Fatalf("failed to get exclusive database access: %v", err)
	}

	cleanup := func() error {
		_ = release()
		return db.Close(ctx)
	}

	return db, cleanup
}

// LoggingQueryHook prints every query the storage layer runs. Tests attach it
// when debugging persistence behaviour.
type LoggingQueryHook struct{}

func (l *LoggingQueryHook) BeforeQuery(ctx context.Context, event *pg.QueryEvent) (context.Context, error) {
	q, err := event.FormattedQuery()
	if err != nil {
		return nil, err
	}

	if event.Err != nil {
		fmt.Printf("%s executing a query:\n%s\n", event.Err, q)
	}
	fmt.Println(string(q))

	return ctx, nil
}

func (l *LoggingQueryHook) AfterQuery(ctx context.Context, event *pg.QueryEvent) error {
	return nil
}
