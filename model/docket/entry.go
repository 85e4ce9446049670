package docket

import (
	"context"
	"time"

	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// A DocketEntry is one row of a case docket. Entry numbers are assigned by
// the court and are not guaranteed to be sequential or even present for all
// court systems: appellate courts substitute an internal document identifier
// carried in RecapSequenceNumber. The documented default ordering for entries
// is therefore (recap_sequence_number, entry_number).
type DocketEntry struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_docketentry"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	DocketID int64 `pg:",notnull,use_zero"`

	DateFiled *time.Time `pg:"type:date"`

	// EntryNumber is the court-assigned number of the entry on the docket.
	// Null when the court does not number entries.
	EntryNumber *int64

	// RecapSequenceNumber orders entries within a docket when entry numbers
	// are missing or unreliable. Derived from the PACER receipt during
	// ingestion; empty when unknown.
	RecapSequenceNumber string `pg:"type:varchar(50),notnull,use_zero"`

	// PacerSequenceNumber is the de_seqno value found in PACER documents.
	PacerSequenceNumber *int64

	Description string `pg:",notnull,use_zero"`
}

func (d *DocketEntry) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docketentry"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, d)
}

type DocketEntryList []*DocketEntry

func (dl DocketEntryList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(dl) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("").Start(ctx, "DocketEntryList.Persist")
	if span.IsRecording() {
		span.SetAttributes(attribute.Int("count", len(dl)))
	}
	defer span.End()

	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docketentry"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(dl))
	return s.PersistModel(ctx, dl)
}

// DocketEntryEvent mirrors DocketEntry, see DocketEvent.
type DocketEntryEvent struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_docketentryevent"`

	EventID   int64     `pg:",pk"`
	EventAt   time.Time `pg:",notnull"`
	EventType string    `pg:"type:varchar(10),notnull"`

	ID int64 `pg:",notnull,use_zero"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	DocketID int64 `pg:",notnull,use_zero"`

	DateFiled *time.Time `pg:"type:date"`

	EntryNumber *int64

	RecapSequenceNumber string `pg:"type:varchar(50),notnull,use_zero"`

	PacerSequenceNumber *int64

	Description string `pg:",notnull,use_zero"`
}

// NewDocketEntryEvent snapshots a docket entry into its event mirror row.
func NewDocketEntryEvent(d *DocketEntry, eventType string, at time.Time) *DocketEntryEvent {
	return &DocketEntryEvent{
		EventAt:   at,
		EventType: eventType,

		ID:                  d.ID,
		DateCreated:         d.DateCreated,
		DateModified:        d.DateModified,
		DocketID:            d.DocketID,
		DateFiled:           d.DateFiled,
		EntryNumber:         d.EntryNumber,
		RecapSequenceNumber: d.RecapSequenceNumber,
		PacerSequenceNumber: d.PacerSequenceNumber,
		Description:         d.Description,
	}
}

func (e *DocketEntryEvent) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docketentryevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, e)
}

type DocketEntryEventList []*DocketEntryEvent

func (el DocketEntryEventList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(el) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docketentryevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(el))
	return s.PersistModel(ctx, el)
}

func init() {
	registry.ModelRegistry.Register("search_docketentry", registry.RankDocketed, &DocketEntry{})
	registry.ModelRegistry.Register("search_docketentryevent", registry.RankEvent, &DocketEntryEvent{})
}
