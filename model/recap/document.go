package recap

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

// Document types carried on a RECAP document row.
const (
	DocumentTypePacer      = 1 // main document of a docket entry
	DocumentTypeAttachment = 2 // attachment to a docket entry
)

// OCR status of the extracted document text.
const (
	OCRComplete    = 1
	OCRUnnecessary = 2
	OCRFailed      = 3
	OCRNeeded      = 4
)

// A RECAPDocument is a filed item associated with one docket entry. A single
// entry may carry a main document and any number of attachments.
type RECAPDocument struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_recapdocument"`

	ID int64 `pg:",pk"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	DocketEntryID int64 `pg:",notnull,use_zero"`

	DocumentType int `pg:",notnull,use_zero"`

	// DocumentNumber is the number of the document on the docket, stored as
	// text since appellate courts may use their internal identifier here.
	DocumentNumber string `pg:"type:varchar(32),notnull,use_zero"`

	// AttachmentNumber is null for main documents.
	AttachmentNumber *int

	// PacerDocID is the identifier of the document in PACER. Stored with the
	// ambiguous fourth digit normalized to "0"; see the pacer package.
	PacerDocID string `pg:"type:varchar(64),notnull,use_zero"`

	// AcmsDocumentGUID is the identifier issued by the appellate case
	// management system. Empty for documents sourced elsewhere.
	AcmsDocumentGUID string `pg:"type:varchar(64),notnull,use_zero"`

	IsAvailable bool `pg:",notnull,use_zero"`

	Sha1 string `pg:"type:varchar(40),notnull,use_zero"`

	PageCount *int
	FileSize  *int64

	FilepathLocal string `pg:"type:varchar(1000),notnull,use_zero"`
	FilepathIA    string `pg:"type:varchar(1000),notnull,use_zero"`

	OCRStatus *int

	IsFreeOnPacer *bool
	IsSealed      *bool

	Description string `pg:",notnull,use_zero"`
}

func (r *RECAPDocument) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_recapdocument"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, r)
}

type RECAPDocumentList []*RECAPDocument

func (rl RECAPDocumentList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(rl) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("").Start(ctx, "RECAPDocumentList.Persist")
	if span.IsRecording() {
		span.SetAttributes(attribute.Int("count", len(rl)))
	}
	defer span.End()

	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_recapdocument"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(rl))
	return s.PersistModel(ctx, rl)
}

// RECAPDocumentEvent mirrors RECAPDocument, see docket.DocketEvent.
type RECAPDocumentEvent struct {
	//lint:ignore U1000 tableName is a convention used by go-pg
	tableName struct{} `pg:"search_recapdocumentevent"`

	EventID   int64     `pg:",pk"`
	EventAt   time.Time `pg:",notnull"`
	EventType string    `pg:"type:varchar(10),notnull"`

	ID int64 `pg:",notnull,use_zero"`

	DateCreated  time.Time `pg:",notnull"`
	DateModified time.Time `pg:",notnull"`

	DocketEntryID int64 `pg:",notnull,use_zero"`

	DocumentType int `pg:",notnull,use_zero"`

	DocumentNumber string `pg:"type:varchar(32),notnull,use_zero"`

	AttachmentNumber *int

	PacerDocID string `pg:"type:varchar(64),notnull,use_zero"`

	AcmsDocumentGUID string `pg:"type:varchar(64),notnull,use_zero"`

	IsAvailable bool `pg:",notnull,use_zero"`

	Sha1 string `pg:"type:varchar(40),notnull,use_zero"`

	PageCount *int
	FileSize  *int64

	FilepathLocal string `pg:"type:varchar(1000),notnull,use_zero"`
	FilepathIA    string `pg:"type:varchar(1000),notnull,use_zero"`

	OCRStatus *int

	IsFreeOnPacer *bool
	IsSealed      *bool

	Description string `pg:",notnull,use_zero"`
}

// NewRECAPDocumentEvent snapshots a document into its event mirror row.
func NewRECAPDocumentEvent(r *RECAPDocument, eventType string, at time.Time) *RECAPDocumentEvent {
	return &RECAPDocumentEvent{
		EventAt:   at,
		EventType: eventType,

		ID:               r.ID,
		DateCreated:      r.DateCreated,
		DateModified:     r.DateModified,
		DocketEntryID:    r.DocketEntryID,
		DocumentType:     r.DocumentType,
		DocumentNumber:   r.DocumentNumber,
		AttachmentNumber: r.AttachmentNumber,
		PacerDocID:       r.PacerDocID,
		AcmsDocumentGUID: r.AcmsDocumentGUID,
		IsAvailable:      r.IsAvailable,
		Sha1:             r.Sha1,
		PageCount:        r.PageCount,
		FileSize:         r.FileSize,
		FilepathLocal:    r.FilepathLocal,
		FilepathIA:       r.FilepathIA,
		OCRStatus:        r.OCRStatus,
		IsFreeOnPacer:    r.IsFreeOnPacer,
		IsSealed:         r.IsSealed,
		Description:      r.Description,
	}
}

func (e *RECAPDocumentEvent) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_recapdocumentevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, 1)
	return s.PersistModel(ctx, e)
}

type RECAPDocumentEventList []*RECAPDocumentEvent

func (el RECAPDocumentEventList) Persist(ctx context.Context, s model.StorageBatch, version model.Version) error {
	if len(el) == 0 {
		return nil
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Table, "search_recapdocumentevent"))
	stop := metrics.Timer(ctx, metrics.PersistDuration)
	defer stop()

	metrics.RecordCount(ctx, metrics.PersistModel, len(el))
	return s.PersistModel(ctx, el)
}

func init() {
	registry.ModelRegistry.Register("search_recapdocument", registry.RankDocument, &RECAPDocument{})
	registry.ModelRegistry.Register("search_recapdocumentevent", registry.RankEvent, &RECAPDocumentEvent{})
}
