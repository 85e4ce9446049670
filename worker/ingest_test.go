package worker

import (
	"context"
	"testing"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/court"
	"github.com/gavelhq/gavel/model/docket"
	"github.com/gavelhq/gavel/model/recap"
	storagetesting "github.com/gavelhq/gavel/storage/testing"
	"github.com/gavelhq/gavel/testutil"
)

func TestIngestDocument(t *testing.T) {
	if testing.Short() || !testutil.DatabaseAvailable() {
		t.Skip("short testing requested or GAVEL_TEST_DB not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, cleanup := storagetesting.WaitForExclusiveMigratedStorage(ctx, t, false)
	defer cleanup() // nolint: errcheck

	truncateIngestTables(t, db.AsORM())

	require.NoError(t, db.PersistBatch(ctx, &court.Court{
		ID:           "cand",
		DateModified: testutil.KnownTime,
		FullName:     "District Court, N.D. California",
		ShortName:    "N.D. Cal.",
		Jurisdiction: court.JurisdictionFederalDistrict,
		InUse:        true,
		HasRecapData: true,
	}))

	h := NewIngestHandler(db)

	entryNo := int64(1)
	payload := &DocumentPayload{
		Court:        "cand",
		PacerCaseID:  "364238",
		DocketNumber: "3:20-cv-05640",
		CaseName:     "Epic Games, Inc. v. Apple Inc.",
		EntryNumber:  &entryNo,
		DateFiled:    "2020-08-13",
		// fourth digit "1" marks an attachment page fetch and must be
		// stored normalized
		PacerDocID:     "035121811436",
		DocumentNumber: "1",
		Sha1:           "a3c87369b44f7d4e30d0d823fd556ae5851f2e11",
		IsAvailable:    true,
		Description:    "Complaint",
	}

	t.Run("first upload creates docket, entry and document", func(t *testing.T) {
		res, err := h.Ingest(ctx, payload)
		require.NoError(t, err)

		assert.Equal(t, 3, res.Created)
		assert.Equal(t, 0, res.Updated)
		require.NotZero(t, res.DocketID)
		require.NotZero(t, res.DocketEntryID)
		require.NotZero(t, res.DocumentID)

		var d docket.Docket
		_, err = db.AsORM().QueryOne(&d, `SELECT * FROM search_docket WHERE id = ?`, res.DocketID)
		require.NoError(t, err)
		assert.Equal(t, "cand", d.CourtID)
		assert.Equal(t, "epic-games-inc-v-apple-inc", d.Slug)
		assert.Equal(t, "2005640", d.DocketNumberCore)
		assert.Equal(t, docket.SourceRECAP, d.Source)

		var rd recap.RECAPDocument
		_, err = db.AsORM().QueryOne(&rd, `SELECT * FROM search_recapdocument WHERE id = ?`, res.DocumentID)
		require.NoError(t, err)
		assert.Equal(t, "035021811436", rd.PacerDocID, "fourth digit should be normalized to zero")
		assert.True(t, rd.IsAvailable)

		assertEventCount(t, db.AsORM(), "search_docketevent", model.EventTypeCreate, 1)
		assertEventCount(t, db.AsORM(), "search_docketentryevent", model.EventTypeCreate, 1)
		assertEventCount(t, db.AsORM(), "search_recapdocumentevent", model.EventTypeCreate, 1)
	})

	t.Run("second upload refreshes in place", func(t *testing.T) {
		update := *payload
		update.CaseName = "Epic Games, Inc. v. Apple Inc. (consolidated)"
		pages := 65
		update.PageCount = &pages

		res, err := h.Ingest(ctx, &update)
		require.NoError(t, err)

		assert.Equal(t, 0, res.Created)
		assert.Equal(t, 2, res.Updated, "docket and document change, the entry does not")

		var count int
		_, err = db.AsORM().QueryOne(pg.Scan(&count), `SELECT COUNT(*) FROM search_docket`)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "no duplicate docket")

		assertEventCount(t, db.AsORM(), "search_docketevent", model.EventTypeUpdate, 1)
		assertEventCount(t, db.AsORM(), "search_recapdocumentevent", model.EventTypeUpdate, 1)
		assertEventCount(t, db.AsORM(), "search_docketentryevent", model.EventTypeUpdate, 0)
	})

	t.Run("unknown court is rejected", func(t *testing.T) {
		bad := *payload
		bad.Court = "nowhere"

		_, err := h.Ingest(ctx, &bad)
		require.ErrorIs(t, err, ErrUnknownCourt)
	})
}

func assertEventCount(tb testing.TB, db *pg.DB, table string, eventType string, want int) {
	tb.Helper()
	var count int
	_, err := db.QueryOne(pg.Scan(&count), `SELECT COUNT(*) FROM `+table+` WHERE event_type = ?`, eventType)
	require.NoError(tb, err)
	assert.Equal(tb, want, count, "%s %s events", table, eventType)
}

func truncateIngestTables(tb testing.TB, db *pg.DB) {
	tb.Helper()
	for _, table := range []string{
		"search_court",
		"search_docket", "search_docketevent",
		"search_docketentry", "search_docketentryevent",
		"search_recapdocument", "search_recapdocumentevent",
	} {
		_, err := db.Exec(`TRUNCATE TABLE ` + table + ` CASCADE`)
		require.NoError(tb, err, "truncating %s", table)
	}
}
