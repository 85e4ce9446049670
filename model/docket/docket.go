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

// Source flags recording where a docket's data came from. Sources combine
// bitwise as a docket is enriched from more than one place.
const (
	SourceDefault = 0  // created directly
	SourceRECAP   = 1  // uploaded by the RECAP extension
	SourcePACER   = 2  // scraped from PACER
	SourceIDB     = 16 // merged from the FJC Integrated Database
)

// A Docket is one case before a court. RECAP documents hang off its entries
// and parties are joined to it through their roles.
type Docket struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_docket"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	Source  int    `pg:",notnull,use_zero"`
	CourtID string `pg:"type:varchar(15),notnull"`

	// OriginatingCourtInformationID links an appellate docket to details of
	// the lower-court case it arose from. Null for non-appellate dockets.
	OriginatingCourtInformationID *int64

	CaseName      string `pg:",notnull,use_zero"`
	CaseNameShort string `pg:",notnull,use_zero"`
	CaseNameFull  string `pg:",notnull,use_zero"`

	// Slug is generated from the case name at ingestion.
	Slug string `pg:"type:varchar(75),notnull,use_zero"`

	DocketNumber string `pg:",notnull,use_zero"`

	// DocketNumberCore is the condensed district-court form of the docket
	// number used for fast lookups, e.g. "1601234" for "2:16-cv-01234".
	// Empty for appellate dockets which have no core form.
	DocketNumberCore string `pg:"type:varchar(20),notnull,use_zero"`

	// PacerCaseID is the identifier PACER assigns to the case. It is not
	// unique across courts.
	PacerCaseID string `pg:"type:varchar(100),notnull,use_zero"`

	DateFiled      *time.Time `pg:"type:date"`
	DateTerminated *time.Time `pg:"type:date"`
	DateLastFiling *time.Time `pg:"type:date"`

	AssignedToStr string `pg:",notnull,use_zero"`
	ReferredToStr string `pg:",notnull,use_zero"`

	Cause            string `pg:"type:varchar(2000),notnull,use_zero"`
	NatureOfSuit     string `pg:"type:varchar(1000),notnull,use_zero"`
	JuryDemand       string `pg:"type:varchar(500),notnull,use_zero"`
	JurisdictionType string `pg:"type:varchar(100),notnull,use_zero"`

	Blocked     bool       `pg:",notnull,use_zero"`
	DateBlocked *time.Time `pg:"type:date"`
}

func (d *Docket) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docket"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, d)
}

type DocketList []*Docket

func (dl DocketList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(dl) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("").Start(ctx, "DocketList.Persist")
	if span.IsRecording() {
		span.SetAttributes(attribute.Int("count", len(dl)))
	}
	defer span.End()

	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docket"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(dl))
	return s.PersistModel(ctx, dl)
}

// A DocketEvent records the state of a docket row at a point in time. Event
// rows are append-only and written in the same transaction as the change
// they record, so the mirrored column set must stay identical to Docket.
type DocketEvent struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_docketevent"`

	EventID   int64     `pg:",pk"`
	EventAt   time.Time `pg:",notnull"`
	EventType string    `pg:"type:varchar(10),notnull"`

	ID int64 `pg:",notnull,use_zero"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	Source  int    `pg:",notnull,use_zero"`
	CourtID string `pg:"type:varchar(15),notnull"`

	OriginatingCourtInformationID *int64

	CaseName      string `pg:",notnull,use_zero"`
	CaseNameShort string `pg:",notnull,use_zero"`
	CaseNameFull  string `pg:",notnull,use_zero"`

	Slug string `pg:"type:varchar(75),notnull,use_zero"`

	DocketNumber     string `pg:",notnull,use_zero"`
	DocketNumberCore string `pg:"type:varchar(20),notnull,use_zero"`

	PacerCaseID string `pg:"type:varchar(100),notnull,use_zero"`

	DateFiled      *time.Time `pg:"type:date"`
	DateTerminated *time.Time `pg:"type:date"`
	DateLastFiling *time.Time `pg:"type:date"`

	AssignedToStr string `pg:",notnull,use_zero"`
	ReferredToStr string `pg:",notnull,use_zero"`

	Cause            string `pg:"type:varchar(2000),notnull,use_zero"`
	NatureOfSuit     string `pg:"type:varchar(1000),notnull,use_zero"`
	JuryDemand       string `pg:"type:varchar(500),notnull,use_zero"`
	JurisdictionType string `pg:"type:varchar(100),notnull,use_zero"`

	Blocked     bool       `pg:",notnull,use_zero"`
	DateBlocked *time.Time `pg:"type:date"`
}

// NewDocketEvent snapshots a docket into its event mirror row.
func NewDocketEvent(d *Docket, eventType string, at time.Time) *DocketEvent {
	return &DocketEvent{
		EventAt:   at,
		EventType: eventType,

		ID:                            d.ID,
		DateCreated:                   d.DateCreated,
		DateModified:                  d.DateModified,
		Source:                        d.Source,
		CourtID:                       d.CourtID,
		OriginatingCourtInformationID: d.OriginatingCourtInformationID,
		CaseName:                      d.CaseName,
		CaseNameShort:                 d.CaseNameShort,
		CaseNameFull:                  d.CaseNameFull,
		Slug:                          d.Slug,
		DocketNumber:                  d.DocketNumber,
		DocketNumberCore:              d.DocketNumberCore,
		PacerCaseID:                   d.PacerCaseID,
		DateFiled:                     d.DateFiled,
		DateTerminated:                d.DateTerminated,
		DateLastFiling:                d.DateLastFiling,
		AssignedToStr:                 d.AssignedToStr,
		ReferredToStr:                 d.ReferredToStr,
		Cause:                         d.Cause,
		NatureOfSuit:                  d.NatureOfSuit,
		JuryDemand:                    d.JuryDemand,
		JurisdictionType:              d.JurisdictionType,
		Blocked:                       d.Blocked,
		DateBlocked:                   d.DateBlocked,
	}
}

func (e *DocketEvent) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docketevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, e)
}

type DocketEventList []*DocketEvent

func (el DocketEventList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(el) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_docketevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(el))
	return s.PersistModel(ctx, el)
}

func init() {
	registry.ModelRegistry.Register("search_docket", registry.RankDocket, &Docket{})
	registry.ModelRegistry.Register("search_docketevent", registry.RankEvent, &DocketEvent{})
}
