package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gavelhq/gavel/model/recap"
	"github.com/gavelhq/gavel/pacer"
)

const (
	TypeIngestDocument = "recap:ingest_document"
)

// DateFormat is the wire format for date-only payload fields.
const DateFormat = "2006-01-02"

// A DocumentPayload carries one uploaded document and enough docket context
// to file it. Identifier fields arrive as PACER reported them; normalization
// happens in the ingest handler so that every path into the database applies
// the same rules.
type DocumentPayload struct {
	// Court is the short code of the court the docket belongs to.
	Court string `json:"court"`

	// PacerCaseID identifies the case within the court.
	PacerCaseID string `json:"pacer_case_id"`

	DocketNumber string `json:"docket_number,omitempty"`
	CaseName     string `json:"case_name,omitempty"`

	// EntryNumber and RecapSequenceNumber locate the docket entry the
	// document belongs to. District uploads carry the entry number,
	// appellate uploads the sequence number; either may be absent.
	EntryNumber         *int64 `json:"entry_number,omitempty"`
	RecapSequenceNumber string `json:"recap_sequence_number,omitempty"`

	// DateFiled is the entry's filing date in YYYY-MM-DD form.
	DateFiled        string `json:"date_filed,omitempty"`
	EntryDescription string `json:"entry_description,omitempty"`

	PacerDocID       string `json:"pacer_doc_id,omitempty"`
	AcmsDocumentGUID string `json:"acms_document_guid,omitempty"`

	DocumentNumber   string `json:"document_number,omitempty"`
	AttachmentNumber *int   `json:"attachment_number,omitempty"`

	Sha1          string `json:"sha1,omitempty"`
	PageCount     *int   `json:"page_count,omitempty"`
	FileSize      *int64 `json:"file_size,omitempty"`
	FilepathLocal string `json:"filepath_local,omitempty"`
	IsAvailable   bool   `json:"is_available,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Validate rejects payloads that could never be filed. Anything it returns an
// error for is not worth retrying.
func (p *DocumentPayload) Validate() error {
	if p.Court == "" {
		return fmt.Errorf("payload missing court")
	}
	if p.PacerCaseID == "" {
		return fmt.Errorf("payload missing pacer_case_id")
	}
	if p.PacerDocID == "" && p.AcmsDocumentGUID == "" {
		return fmt.Errorf("payload carries neither pacer_doc_id nor acms_document_guid")
	}
	if p.PacerDocID != "" && !pacer.IsValidDocID(p.PacerDocID) {
		return fmt.Errorf("invalid pacer_doc_id %q", p.PacerDocID)
	}
	if p.DateFiled != "" {
		if _, err := time.Parse(DateFormat, p.DateFiled); err != nil {
			return fmt.Errorf("invalid date_filed %q: %w", p.DateFiled, err)
		}
	}
	return nil
}

// DocumentType derives the stored document type from the payload: anything
// carrying an attachment number is an attachment, the rest are main
// documents.
func (p *DocumentPayload) DocumentType() int {
	if p.AttachmentNumber != nil {
		return recap.DocumentTypeAttachment
	}
	return recap.DocumentTypePacer
}

// FiledDate parses DateFiled, nil when absent.
func (p *DocumentPayload) FiledDate() *time.Time {
	if p.DateFiled == "" {
		return nil
	}
	t, err := time.Parse(DateFormat, p.DateFiled)
	if err != nil {
		return nil
	}
	return &t
}

func NewIngestDocumentTask(p *DocumentPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeIngestDocument, payload), nil
}
