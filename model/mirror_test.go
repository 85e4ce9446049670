package model_test

import (
	"fmt"
	"testing"

	"github.com/go-pg/pg/v10/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/model/docket"
	"github.com/gavelhq/gavel/model/recap"
)

// The event tables are append-only history mirrors: they log the state of a
// row at past points in time, so they must carry the same column set and
// type widths as their primary table at all times. Any schema patch touching
// a mirrored table has to alter both sides, and this test catches a model
// that drifted.

var eventMetadataColumns = map[string]bool{
	"event_id":   true,
	"event_at":   true,
	"event_type": true,
}

func modelColumns(t *testing.T, m interface{}) map[string]string {
	t.Helper()
	tbl := orm.NewQuery(nil, m).TableModel().Table()

	cols := make(map[string]string, len(tbl.Fields))
	for _, fld := range tbl.Fields {
		cols[fld.SQLName] = fld.SQLType
	}
	return cols
}

func TestEventTablesMirrorPrimaries(t *testing.T) {
	pairs := []struct {
		primary interface{}
		event   interface{}
	}{
		{&docket.Docket{}, &docket.DocketEvent{}},
		{&docket.DocketEntry{}, &docket.DocketEntryEvent{}},
		{&recap.RECAPDocument{}, &recap.RECAPDocumentEvent{}},
		{&recap.ClaimHistory{}, &recap.ClaimHistoryEvent{}},
	}

	for _, pair := range pairs {
		t.Run(fmt.Sprintf("%T", pair.primary), func(t *testing.T) {
			primary := modelColumns(t, pair.primary)
			event := modelColumns(t, pair.event)

			// every primary column appears in the mirror with the same type
			for col, typ := range primary {
				eventTyp, ok := event[col]
				require.True(t, ok, "event table is missing mirrored column %q", col)
				assert.Equal(t, typ, eventTyp, "mirrored column %q changed type", col)
			}

			// the mirror adds only its event metadata
			for col := range event {
				if _, mirrored := primary[col]; mirrored {
					continue
				}
				assert.True(t, eventMetadataColumns[col], "event table has unexpected extra column %q", col)
			}
		})
	}
}

func TestEventConstructorsCopyEveryColumn(t *testing.T) {
	// The New*Event constructors are the only write path for mirror rows.
	// Count fields rather than values: a constructor that forgets a newly
	// added column keeps compiling, but the column arithmetic here fails.
	cases := []struct {
		name    string
		primary interface{}
		event   interface{}
	}{
		{"docket", &docket.Docket{}, &docket.DocketEvent{}},
		{"docket_entry", &docket.DocketEntry{}, &docket.DocketEntryEvent{}},
		{"recap_document", &recap.RECAPDocument{}, &recap.RECAPDocumentEvent{}},
		{"claim_history", &recap.ClaimHistory{}, &recap.ClaimHistoryEvent{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			primary := modelColumns(t, tc.primary)
			event := modelColumns(t, tc.event)
			assert.Equal(t, len(primary)+len(eventMetadataColumns), len(event))
		})
	}
}
