package recap

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/registry"
)

// Claim document types.
const (
	ClaimDocumentTypeClaim      = 1 // document filed with the claim itself
	ClaimDocumentTypeAttachment = 2
)

// A ClaimHistory is a document variant attached to a bankruptcy claim. Claims
// reference documents by the same PACER identifiers as docket entries do, so
// pacer_doc_id here carries the same width and normalization rules as on
// RECAPDocument.
type ClaimHistory struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_claimhistory"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	ClaimID int64 `pg:",notnull,use_zero"`

	DateFiled *time.Time `pg:"type:date"`

	ClaimDocumentType int `pg:",notnull,use_zero"`

	DocumentNumber   string `pg:"type:varchar(32),notnull,use_zero"`
	AttachmentNumber *int

	// PacerCaseID is the identifier of the case in PACER, which for claim
	// documents can differ from the docket's own case identifier.
	PacerCaseID string `pg:"type:varchar(100),notnull,use_zero"`

	PacerDocID string `pg:"type:varchar(64),notnull,use_zero"`

	// PacerDMID is the document management identifier some bankruptcy courts
	// attach to claim documents.
	PacerDMID *int64

	IsAvailable bool `pg:",notnull,use_zero"`

	Sha1 string `pg:"type:varchar(40),notnull,use_zero"`

	FileSize *int64

	FilepathLocal string `pg:"type:varchar(1000),notnull,use_zero"`

	Description string `pg:",notnull,use_zero"`
}

func (c *ClaimHistory) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_claimhistory"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, c)
}

type ClaimHistoryList []*ClaimHistory

func (cl ClaimHistoryList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(cl) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_claimhistory"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(cl))
	return s.PersistModel(ctx, cl)
}

// ClaimHistoryEvent mirrors ClaimHistory, see docket.DocketEvent.
type ClaimHistoryEvent struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_claimhistoryevent"`

	EventID   int64     `pg:",pk"`
	EventAt   time.Time `pg:",notnull"`
	EventType string    `pg:"type:varchar(10),notnull"`

	ID int64 `pg:",notnull,use_zero"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	ClaimID int64 `pg:",notnull,use_zero"`

	DateFiled *time.Time `pg:"type:date"`

	ClaimDocumentType int `pg:",notnull,use_zero"`

	DocumentNumber   string `pg:"type:varchar(32),notnull,use_zero"`
	AttachmentNumber *int

	PacerCaseID string `pg:"type:varchar(100),notnull,use_zero"`

	PacerDocID string `pg:"type:varchar(64),notnull,use_zero"`

	PacerDMID *int64

	IsAvailable bool `pg:",notnull,use_zero"`

	Sha1 string `pg:"type:varchar(40),notnull,use_zero"`

	FileSize *int64

	FilepathLocal string `pg:"type:varchar(1000),notnull,use_zero"`

	Description string `pg:",notnull,use_zero"`
}

// NewClaimHistoryEvent snapshots a claim document into its event mirror row.
func NewClaimHistoryEvent(c *ClaimHistory, eventType string, at time.Time) *ClaimHistoryEvent {
	return &ClaimHistoryEvent{
		EventAt:   at,
		EventType: eventType,

		ID:                c.ID,
		DateCreated:       c.DateCreated,
		DateModified:      c.DateModified,
		ClaimID:           c.ClaimID,
		DateFiled:         c.DateFiled,
		ClaimDocumentType: c.ClaimDocumentType,
		DocumentNumber:    c.DocumentNumber,
		AttachmentNumber:  c.AttachmentNumber,
		PacerCaseID:       c.PacerCaseID,
		PacerDocID:        c.PacerDocID,
		PacerDMID:         c.PacerDMID,
		IsAvailable:       c.IsAvailable,
		Sha1:              c.Sha1,
		FileSize:          c.FileSize,
		FilepathLocal:     c.FilepathLocal,
		Description:       c.Description,
	}
}

func (e *ClaimHistoryEvent) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_claimhistoryevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, e)
}

type ClaimHistoryEventList []*ClaimHistoryEvent

func (el ClaimHistoryEventList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(el) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_claimhistoryevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(el))
	return s.PersistModel(ctx, el)
}

func init() {
	registry.ModelRegistry.Register("search_claimhistory", registry.RankDocument, &ClaimHistory{})
	registry.ModelRegistry.Register("search_claimhistoryevent", registry.RankEvent, &ClaimHistoryEvent{})
}
