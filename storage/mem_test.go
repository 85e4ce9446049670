package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/model/court"
	"github.com/gavelhq/gavel/testutil"
)

func TestMemStorage(t *testing.T) {
	ms := NewMemStorageLatest()

	c := &court.Court{
		ID:           "ca9",
		DateModified: testutil.KnownTime,
		FullName:     "Court of Appeals for the Ninth Circuit",
		ShortName:    "9th Cir.",
		Jurisdiction: court.JurisdictionFederalAppellate,
		InUse:        true,
	}
	require.NoError(t, ms.PersistBatch(context.Background(), c))

	rows := ms.Table("search_court")
	require.Len(t, rows, 1)
	got, ok := rows[0].(*court.Court)
	require.True(t, ok)
	assert.Equal(t, "ca9", got.ID)

	assert.Empty(t, ms.Table("search_docket"))
}

func TestMemStorageList(t *testing.T) {
	ms := NewMemStorageLatest()

	cl := court.CourtList{
		{ID: "ca9", Jurisdiction: court.JurisdictionFederalAppellate},
		{ID: "cand", Jurisdiction: court.JurisdictionFederalDistrict},
	}
	require.NoError(t, ms.PersistBatch(context.Background(), cl))

	assert.Len(t, ms.Table("search_court"), 2)
}
