package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/model/court"
	"github.com/gavelhq/gavel/model/docket"
	"github.com/gavelhq/gavel/model/registry"
	"github.com/gavelhq/gavel/storage"
	storagetesting "github.com/gavelhq/gavel/storage/testing"
	"github.com/gavelhq/gavel/testutil"
)

func TestSnapshotterRun(t *testing.T) {
	if testing.Short() || !testutil.DatabaseAvailable() {
		t.Skip("short testing requested or GAVEL_TEST_DB not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, cleanup := storagetesting.WaitForExclusiveMigratedStorage(ctx, t, false)
	defer cleanup() // nolint: errcheck

	truncateExportTables(t, db.AsORM())

	entryNumber := int64(1)
	require.NoError(t, db.PersistBatch(ctx,
		&court.Court{
			ID:           "cand",
			DateModified: testutil.KnownTime,
			FullName:     "District Court, N.D. California",
			Jurisdiction: court.JurisdictionFederalDistrict,
			InUse:        true,
		},
		&docket.Docket{
			ID:           401,
			DateCreated:  testutil.KnownTime,
			DateModified: testutil.KnownTime,
			CourtID:      "cand",
			CaseName:     "Epic Games, Inc. v. Apple Inc.",
			Slug:         "epic-games-inc-v-apple-inc",
			DocketNumber: "3:20-cv-05640",
			PacerCaseID:  "364238",
		},
		&docket.DocketEntry{
			ID:           4011,
			DateCreated:  testutil.KnownTime,
			DateModified: testutil.KnownTime,
			DocketID:     401,
			EntryNumber:  &entryNumber,
			Description:  "Complaint",
		},
	))

	outDir := t.TempDir()

	s := NewSnapshotter(db, config.ExportConf{
		Path:   outDir,
		Tables: []string{"search_court", "search_docket", "search_docketentry"},
	})

	var progressed []string
	s.Progress = func(table string, done, total int) {
		progressed = append(progressed, table)
	}

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, []string{"search_court", "search_docket", "search_docketentry"}, progressed)

	manifests, err := filepath.Glob(filepath.Join(outDir, "manifest-*.json"))
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(manifests[0]), "manifest-"), ".json")

	t.Run("csv discipline", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "search_court-"+stamp+".csv"))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2, "header plus one court")
		assert.Equal(t, "id,date_modified,full_name,short_name,citation_string,url,jurisdiction,position,in_use,has_recap_data,start_date,end_date", lines[0])
		// Every non-null value is quoted; nulls are bare empty fields. The
		// court's dates are null so the row ends with two of them.
		assert.Contains(t, lines[1], `"cand"`)
		assert.True(t, strings.HasSuffix(lines[1], ",,"), "null dates should be unquoted empty fields: %s", lines[1])
		// Short name was persisted as empty string, which must stay
		// distinguishable from null.
		assert.Contains(t, lines[1], `"",""`)
	})

	t.Run("manifest written last and complete", func(t *testing.T) {
		m, err := ReadManifest(filepath.Join(outDir, "manifest-"+stamp+".json"))
		require.NoError(t, err)

		assert.Equal(t, stamp, m.Stamp)
		assert.Equal(t, db.SchemaVersion().String(), m.SchemaVersion)
		require.Len(t, m.Files, 3)

		byTable := map[string]FileInfo{}
		for _, f := range m.Files {
			byTable[f.Table] = f
		}
		assert.Equal(t, int64(1), byTable["search_court"].Rows)
		assert.Equal(t, int64(1), byTable["search_docket"].Rows)
		require.NotEmpty(t, byTable["search_docket"].SHA256)

		st, err := os.Stat(filepath.Join(outDir, byTable["search_docket"].Name))
		require.NoError(t, err)
		assert.Equal(t, st.Size(), byTable["search_docket"].Bytes)

		schema, err := os.ReadFile(filepath.Join(outDir, m.SchemaFile))
		require.NoError(t, err)
		assert.Contains(t, string(schema), "search_docketentry")

		script, err := os.ReadFile(filepath.Join(outDir, m.LoadScript))
		require.NoError(t, err)
		assert.Contains(t, string(script), m.SchemaFile)
	})

	t.Run("export run recorded", func(t *testing.T) {
		var status, manifestName string
		_, err := db.AsORM().QueryOne(pg.Scan(&status, &manifestName),
			`SELECT status, manifest_name FROM export_run ORDER BY started_at DESC LIMIT 1`)
		require.NoError(t, err)
		assert.Equal(t, "OK", status)
		assert.Equal(t, "manifest-"+stamp+".json", manifestName)
	})

	t.Run("second exporter is locked out", func(t *testing.T) {
		require.NoError(t, storage.ExportLock.LockExclusive(ctx, db.AsORM()))
		defer func() {
			require.NoError(t, storage.ExportLock.UnlockExclusive(ctx, db.AsORM()))
		}()

		other := NewSnapshotter(db, config.ExportConf{Path: t.TempDir()})
		err := other.Run(ctx)
		require.ErrorIs(t, err, storage.ErrLockNotAcquired)
	})
}

func TestSnapshotterUnknownTable(t *testing.T) {
	s := NewSnapshotter(nil, config.ExportConf{Tables: []string{"search_court", "no_such_table"}})
	_, err := s.tables()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestCopyQuery(t *testing.T) {
	tbl, err := registry.ModelRegistry.Table("search_docket")
	require.NoError(t, err)

	q := copyQuery(tbl)
	assert.True(t, strings.HasPrefix(q, `COPY (SELECT "id", "date_created", "date_modified"`))
	assert.Contains(t, q, `FROM search_docket ORDER BY "id"`)
	assert.Contains(t, q, `FORCE_QUOTE *`)
	assert.Contains(t, q, `HEADER`)
}

func truncateExportTables(tb testing.TB, db *pg.DB) {
	tb.Helper()
	for _, table := range []string{"search_court", "search_docket", "search_docketentry", "export_run"} {
		_, err := db.Exec(`TRUNCATE TABLE ` + table + ` CASCADE`)
		require.NoError(tb, err, "truncating %s", table)
	}
}
