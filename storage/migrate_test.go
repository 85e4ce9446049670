package storage

import (
	"context"
	"testing"
	"time"

	"github.com/go-pg/migrations/v8"
	"github.com/go-pg/pg/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/testutil"
)

func TestLatestSchemaVersion(t *testing.T) {
	latest := LatestSchemaVersion()
	assert.Equal(t, model.Version{Major: 1, Patch: 2}, latest)

	// The models in this build must be usable against the latest schema.
	assert.False(t, latest.Before(model.OldestSupportedSchemaVersion))
}

func TestCheckMigrationSequence(t *testing.T) {
	t.Run("contiguous", func(t *testing.T) {
		coll := migrations.NewCollection(
			&migrations.Migration{Version: 1},
			&migrations.Migration{Version: 2},
			&migrations.Migration{Version: 3},
		)
		assert.NoError(t, checkMigrationSequence(coll, 0, 3))
	})

	t.Run("missing patch", func(t *testing.T) {
		coll := migrations.NewCollection(
			&migrations.Migration{Version: 1},
			&migrations.Migration{Version: 3},
		)
		err := checkMigrationSequence(coll, 0, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing migration")
	})

	t.Run("duplicate patch", func(t *testing.T) {
		coll := migrations.NewCollection(
			&migrations.Migration{Version: 1},
			&migrations.Migration{Version: 1},
		)
		err := checkMigrationSequence(coll, 0, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate migration")
	})

	t.Run("reversed range", func(t *testing.T) {
		coll := migrations.NewCollection(
			&migrations.Migration{Version: 1},
			&migrations.Migration{Version: 2},
		)
		assert.NoError(t, checkMigrationSequence(coll, 2, 0))
	})
}

func TestMigrateSchemaTargetMajor(t *testing.T) {
	d := &Database{schemaName: "public"}

	err := d.MigrateSchemaTo(context.Background(), model.Version{Major: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema defined")

	err = d.MigrateSchemaTo(context.Background(), model.Version{Major: 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema defined")
}

// TestMigrateSchemaFresh runs the full migration against a throwaway schema
// and checks that each patch leaves the database in the expected state.
func TestMigrateSchemaFresh(t *testing.T) {
	if testing.Short() || !testutil.DatabaseAvailable() {
		t.Skip("short testing requested or GAVEL_TEST_DB not set")
	}

	const schemaName = "gavel_test_migration"

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	dropTestSchema(t, schemaName)
	defer dropTestSchema(t, schemaName)

	d, err := NewDatabase(ctx, testutil.Database(), 1, "gavel-test", schemaName, false)
	require.NoError(t, err)

	// Stop at the patch before the document identifier changes.
	require.NoError(t, d.MigrateSchemaTo(ctx, model.Version{Major: 1, Patch: 1}))

	dbVersion, _, err := d.GetSchemaVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Version{Major: 1, Patch: 1}, dbVersion)

	// The models require the wider document identifier columns, so the
	// schema must not verify yet.
	assert.Equal(t, 32, varcharWidth(t, schemaName, "search_recapdocument", "pacer_doc_id"))
	require.Error(t, d.VerifyCurrentSchema(ctx))

	// Migrate the rest of the way.
	require.NoError(t, d.MigrateSchema(ctx))

	dbVersion, latest, err := d.GetSchemaVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest, dbVersion)

	require.NoError(t, d.VerifyCurrentSchema(ctx))

	for _, tbl := range []string{"search_recapdocument", "search_recapdocumentevent", "search_claimhistory", "search_claimhistoryevent"} {
		assert.Equal(t, 64, varcharWidth(t, schemaName, tbl, "pacer_doc_id"), tbl)
	}
	assert.Equal(t, 64, varcharWidth(t, schemaName, "search_recapdocument", "acms_document_guid"))
	assert.Equal(t, 64, varcharWidth(t, schemaName, "search_recapdocumentevent", "acms_document_guid"))

	// Running the migration again is a no-op.
	require.NoError(t, d.MigrateSchema(ctx))

	// Downgrades are refused.
	err = d.MigrateSchemaTo(ctx, model.Version{Major: 1, Patch: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downgrades are not supported")
}

// dropTestSchema removes a schema and everything in it.
func dropTestSchema(tb testing.TB, schemaName string) {
	tb.Helper()

	opt, err := pg.ParseURL(testutil.Database())
	require.NoError(tb, err)

	db := pg.Connect(opt)
	defer db.Close() // nolint: errcheck

	_, err = db.Exec(`DROP SCHEMA IF EXISTS ? CASCADE`, pg.SafeQuery(schemaName))
	require.NoError(tb, err, "dropping schema %s", schemaName)
}

// varcharWidth returns the declared character_maximum_length of a column.
func varcharWidth(tb testing.TB, schemaName, tableName, columnName string) int {
	tb.Helper()

	opt, err := pg.ParseURL(testutil.Database())
	require.NoError(tb, err)

	db := pg.Connect(opt)
	defer db.Close() // nolint: errcheck

	var width int
	_, err = db.QueryOne(pg.Scan(&width),
		`SELECT character_maximum_length FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ? AND column_name = ?`,
		schemaName, tableName, columnName)
	require.NoError(tb, err, "querying width of %s.%s", tableName, columnName)
	return width
}
