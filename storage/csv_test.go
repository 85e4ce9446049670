package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/model"
)

type FilingModel struct {
	ID           int64  `pg:",pk,notnull,use_zero"`
	CourtID      string `pg:",pk,notnull"`
	DocketNumber string `pg:",notnull"`
}

func (fm *FilingModel) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	return s.PersistModel(ctx, fm)
}

type StampModel struct {
	ID       int64     `pg:",pk,notnull,use_zero"`
	Recorded time.Time `pg:",pk,notnull"`
}

func (sm *StampModel) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	return s.PersistModel(ctx, sm)
}

type DeadlineModel struct {
	ID  int64     `pg:",pk,notnull,use_zero"`
	Due time.Time `pg:"type:date,notnull"`
}

func (dm *DeadlineModel) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	return s.PersistModel(ctx, dm)
}

type NullableModel struct {
	ID        int64 `pg:",pk,notnull,use_zero"`
	Note      *string
	PageCount *int64
	FiledOn   *time.Time
}

func (nm *NullableModel) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	return s.PersistModel(ctx, nm)
}

func TestCSVTable(t *testing.T) {
	fm := &FilingModel{
		ID:           401,
		CourtID:      "cand",
		DocketNumber: "3:20-cv-05640",
	}

	table := getCSVModelTable(fm, model.Version{Major: 1})
	require.NotNil(t, table.columns)
	assert.ElementsMatch(t, table.columns, []string{"id", "court_id", "docket_number"})

	require.NotNil(t, table.fields)
	assert.ElementsMatch(t, table.fields, []string{"ID", "CourtID", "DocketNumber"})
}

func TestCSVPersist(t *testing.T) {
	fm := &FilingModel{
		ID:           401,
		CourtID:      "cand",
		DocketNumber: "3:20-cv-05640",
	}

	dir := t.TempDir()

	st, err := NewCSVStorage(dir, model.Version{Major: 1}, DefaultCSVStorageOptions())
	require.NoError(t, err)

	err = st.PersistBatch(context.Background(), fm)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "filing_models.csv"))
	require.NoError(t, err)
	assert.EqualValues(t,
		"id,court_id,docket_number\n"+
			"401,cand,3:20-cv-05640\n",
		string(written))
}

func TestCSVPersistMulti(t *testing.T) {
	fms := []model.Persistable{
		&FilingModel{
			ID:           401,
			CourtID:      "cand",
			DocketNumber: "3:20-cv-05640",
		},

		&FilingModel{
			ID:           402,
			CourtID:      "nysd",
			DocketNumber: "1:22-cv-10019",
		},

		&FilingModel{
			ID:           403,
			CourtID:      "txwb",
			DocketNumber: "6:21-bk-60052",
		},
	}

	dir := t.TempDir()

	st, err := NewCSVStorage(dir, model.Version{Major: 1}, DefaultCSVStorageOptions())
	require.NoError(t, err)

	err = st.PersistBatch(context.Background(), fms...)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "filing_models.csv"))
	require.NoError(t, err)
	assert.EqualValues(t,
		"id,court_id,docket_number\n"+
			"401,cand,3:20-cv-05640\n"+
			"402,nysd,1:22-cv-10019\n"+
			"403,txwb,6:21-bk-60052\n",
		string(written))
}

type FilingBundle struct {
	Filing *FilingModel
	Stamp  *StampModel
}

func (b *FilingBundle) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if err := s.PersistModel(ctx, b.Filing); err != nil {
		return err
	}
	return s.PersistModel(ctx, b.Stamp)
}

func TestCSVPersistComposite(t *testing.T) {
	recorded := time.Date(2023, 4, 26, 9, 30, 0, 0, time.UTC)

	// A bundle persists into more than one table from a single batch.
	bundle := &FilingBundle{
		Filing: &FilingModel{
			ID:           401,
			CourtID:      "cand",
			DocketNumber: "3:20-cv-05640",
		},

		Stamp: &StampModel{
			ID:       401,
			Recorded: recorded,
		},
	}

	dir := t.TempDir()

	st, err := NewCSVStorage(dir, model.Version{Major: 1}, DefaultCSVStorageOptions())
	require.NoError(t, err)

	err = st.PersistBatch(context.Background(), bundle)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "filing_models.csv"))
	require.NoError(t, err)
	assert.EqualValues(t,
		"id,court_id,docket_number\n"+
			"401,cand,3:20-cv-05640\n",
		string(written))

	stampWritten, err := os.ReadFile(filepath.Join(dir, "stamp_models.csv"))
	require.NoError(t, err)
	assert.EqualValues(t,
		"id,recorded\n"+
			"401,"+recorded.Format(PostgresTimestampFormat)+"\n",
		string(stampWritten))
}

func TestCSVPersistTime(t *testing.T) {
	// use time.Now since its string form includes the monotonic clock, so we
	// can test it is not present in csv output
	now := time.Now()

	sm := &StampModel{
		ID:       401,
		Recorded: now,
	}

	dir := t.TempDir()

	st, err := NewCSVStorage(dir, model.Version{Major: 1}, DefaultCSVStorageOptions())
	require.NoError(t, err)

	err = st.PersistBatch(context.Background(), sm)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "stamp_models.csv"))
	require.NoError(t, err)
	assert.EqualValues(t,
		"id,recorded\n"+
			"401,"+now.Format(PostgresTimestampFormat)+"\n",
		string(written))
}

func TestCSVPersistDate(t *testing.T) {
	// Date columns are written without a time component so the load script
	// can copy them straight into date-typed columns.
	dm := &DeadlineModel{
		ID:  401,
		Due: time.Date(2023, 4, 26, 9, 30, 0, 0, time.UTC),
	}

	dir := t.TempDir()

	st, err := NewCSVStorage(dir, model.Version{Major: 1}, DefaultCSVStorageOptions())
	require.NoError(t, err)

	err = st.PersistBatch(context.Background(), dm)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "deadline_models.csv"))
	require.NoError(t, err)
	assert.EqualValues(t,
		"id,due\n"+
			"401,2023-04-26\n",
		string(written))
}

func TestCSVPersistNullable(t *testing.T) {
	dir := t.TempDir()

	st, err := NewCSVStorage(dir, model.Version{Major: 1}, DefaultCSVStorageOptions())
	require.NoError(t, err)

	t.Run("nil pointers become NULL", func(t *testing.T) {
		nm := &NullableModel{
			ID: 401,
		}

		err = st.PersistBatch(context.Background(), nm)
		require.NoError(t, err)

		written, err := os.ReadFile(filepath.Join(dir, "nullable_models.csv"))
		require.NoError(t, err)
		assert.EqualValues(t,
			"id,note,page_count,filed_on\n"+
				"401,NULL,NULL,NULL\n",
			string(written))
	})

	t.Run("set pointers are dereferenced", func(t *testing.T) {
		note := "sealed"
		pages := int64(12)
		filed := time.Date(2023, 4, 26, 9, 30, 0, 0, time.UTC)

		nm := &NullableModel{
			ID:        402,
			Note:      &note,
			PageCount: &pages,
			FiledOn:   &filed,
		}

		err = st.PersistBatch(context.Background(), nm)
		require.NoError(t, err)

		written, err := os.ReadFile(filepath.Join(dir, "nullable_models.csv"))
		require.NoError(t, err)
		assert.EqualValues(t,
			"id,note,page_count,filed_on\n"+
				"401,NULL,NULL,NULL\n"+
				"402,sealed,12,"+filed.Format(PostgresTimestampFormat)+"\n",
			string(written))
	})
}

type VersionedModelLatest struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"versioned_filings"`
	ID        int64    `pg:",pk,notnull,use_zero"`
	CourtID   string   `pg:",notnull"`
	Slug      string   `pg:",notnull"`
}

// VersionedModelV1 shares a table name with VersionedModelLatest but has the
// earlier shape, before the slug column existed.
type VersionedModelV1 struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"versioned_filings"`
	ID        int64    `pg:",pk,notnull,use_zero"`
	CourtID   string   `pg:",notnull"`
}

func TestCSVTableWithVersion(t *testing.T) {
	vm := &VersionedModelLatest{
		ID:      401,
		CourtID: "cand",
		Slug:    "apple-v-epic",
	}

	table := getCSVModelTable(vm, model.Version{Major: 2})
	require.NotNil(t, table.columns)
	assert.ElementsMatch(t, table.columns, []string{"id", "court_id", "slug"})

	vm1 := &VersionedModelV1{
		ID:      401,
		CourtID: "cand",
	}

	// Same table name, older schema version: the cache must keep the two
	// definitions apart.
	tablev1 := getCSVModelTable(vm1, model.Version{Major: 1})
	require.NotNil(t, tablev1.columns)
	assert.ElementsMatch(t, tablev1.columns, []string{"id", "court_id"})
}

func TestCSVOptionOmitHeader(t *testing.T) {
	fm := &FilingModel{
		ID:           401,
		CourtID:      "cand",
		DocketNumber: "3:20-cv-05640",
	}

	runTest := func(t *testing.T, omitHeader bool, expected string) {
		dir := t.TempDir()

		opts := DefaultCSVStorageOptions()
		opts.OmitHeader = omitHeader

		st, err := NewCSVStorage(dir, model.Version{Major: 1}, opts)
		require.NoError(t, err)

		err = st.PersistBatch(context.Background(), fm)
		require.NoError(t, err)

		written, err := os.ReadFile(filepath.Join(dir, "filing_models.csv"))
		require.NoError(t, err)
		assert.EqualValues(t, expected, string(written))
	}

	t.Run("false", func(t *testing.T) {
		runTest(t, false, "id,court_id,docket_number\n"+"401,cand,3:20-cv-05640\n")
	})

	t.Run("true", func(t *testing.T) {
		runTest(t, true, "401,cand,3:20-cv-05640\n")
	})
}

func TestCSVOptionFilePattern(t *testing.T) {
	fm := &FilingModel{
		ID:           401,
		CourtID:      "cand",
		DocketNumber: "3:20-cv-05640",
	}

	runTest := func(t *testing.T, pattern string, md Metadata, expected string) {
		dir := t.TempDir()

		opts := DefaultCSVStorageOptions()
		opts.FilePattern = pattern

		st, err := NewCSVStorage(dir, model.Version{Major: 1}, opts)
		require.NoError(t, err)

		err = st.WithMetadata(md).PersistBatch(context.Background(), fm)
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(dir, expected))
		require.NoError(t, err)
	}

	t.Run("default", func(t *testing.T) {
		runTest(t, "", Metadata{}, "filing_models.csv")
	})

	t.Run("table", func(t *testing.T) {
		runTest(t, "{table}.csv", Metadata{}, "filing_models.csv")
	})

	t.Run("jobname", func(t *testing.T) {
		runTest(t, "{jobname}.csv", Metadata{JobName: "snapshot-2023-04"}, "snapshot-2023-04.csv")
	})
}
