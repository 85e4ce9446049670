package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/raulk/clock"

	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/model/court"
	"github.com/gavelhq/gavel/model/docket"
	"github.com/gavelhq/gavel/model/recap"
	"github.com/gavelhq/gavel/pacer"
	"github.com/gavelhq/gavel/storage"
)

// ErrUnknownCourt is returned when a payload names a court that is not in the
// court table. Courts are reference data loaded out of band, so these tasks
// are dropped rather than retried.
var ErrUnknownCourt = errors.New("unknown court")

var errNotConnected = errors.New("storage is not connected")

// IngestResult reports what one ingest task did to the database.
type IngestResult struct {
	DocketID      int64
	DocketEntryID int64
	DocumentID    int64

	// Created and Updated count primary rows written, not event rows.
	Created int
	Updated int
}

type IngestHandler struct {
	db *storage.Database

	Clock clock.Clock
}

func NewIngestHandler(db *storage.Database) *IngestHandler {
	return &IngestHandler{
		db:    db,
		Clock: clock.New(),
	}
}

// Ingest files one document: it resolves or creates the docket and entry the
// document belongs to, then creates or refreshes the document row itself.
// Every row written gets an event mirror row in the same transaction, so a
// reader of the event tables sees either all of an upload or none of it.
func (h *IngestHandler) Ingest(ctx context.Context, p *DocumentPayload) (*IngestResult, error) {
	if !h.db.IsConnected(ctx) {
		return nil, errNotConnected
	}
	now := h.Clock.Now().UTC()
	res := new(IngestResult)

	err := h.db.AsORM().RunInTransaction(ctx, func(tx *pg.Tx) error {
		exists, err := tx.ModelContext(ctx, &court.Court{ID: p.Court}).WherePK().Exists()
		if err != nil {
			return fmt.Errorf("check court: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %q", ErrUnknownCourt, p.Court)
		}

		d, err := h.resolveDocket(ctx, tx, p, now, res)
		if err != nil {
			return err
		}
		res.DocketID = d.ID

		e, err := h.resolveEntry(ctx, tx, d, p, now, res)
		if err != nil {
			return err
		}
		res.DocketEntryID = e.ID

		rd, err := h.resolveDocument(ctx, tx, e, p, now, res)
		if err != nil {
			return err
		}
		res.DocumentID = rd.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveDocket finds the docket for (court, pacer_case_id), creating it on
// first sight and folding in any fresher case details on subsequent uploads.
// The row is locked for the rest of the transaction.
func (h *IngestHandler) resolveDocket(ctx context.Context, tx *pg.Tx, p *DocumentPayload, now time.Time, res *IngestResult) (*docket.Docket, error) {
	d := new(docket.Docket)
	err := tx.ModelContext(ctx, d).
		Where("court_id = ?", p.Court).
		Where("pacer_case_id = ?", p.PacerCaseID).
		For("UPDATE").
		Select()

	switch {
	case errors.Is(err, pg.ErrNoRows):
		d = &docket.Docket{
			DateCreated:      now,
			DateModified:     now,
			Source:           docket.SourceRECAP,
			CourtID:          p.Court,
			PacerCaseID:      p.PacerCaseID,
			CaseName:         p.CaseName,
			Slug:             pacer.Slugify(p.CaseName),
			DocketNumber:     p.DocketNumber,
			DocketNumberCore: pacer.MakeDocketNumberCore(p.DocketNumber),
		}
		if _, err := tx.ModelContext(ctx, d).Insert(); err != nil {
			return nil, fmt.Errorf("insert docket: %w", err)
		}
		res.Created++
		if err := h.emit(ctx, tx, docket.NewDocketEvent(d, model.EventTypeCreate, now)); err != nil {
			return nil, err
		}

	case err != nil:
		return nil, fmt.Errorf("select docket: %w", err)

	default:
		changed := false
		if p.CaseName != "" && d.CaseName != p.CaseName {
			d.CaseName = p.CaseName
			d.Slug = pacer.Slugify(p.CaseName)
			changed = true
		}
		if p.DocketNumber != "" && d.DocketNumber != p.DocketNumber {
			d.DocketNumber = p.DocketNumber
			d.DocketNumberCore = pacer.MakeDocketNumberCore(p.DocketNumber)
			changed = true
		}
		if d.Source&docket.SourceRECAP == 0 {
			d.Source |= docket.SourceRECAP
			changed = true
		}
		if !changed {
			return d, nil
		}
		d.DateModified = now
		if _, err := tx.ModelContext(ctx, d).WherePK().Update(); err != nil {
			return nil, fmt.Errorf("update docket: %w", err)
		}
		res.Updated++
		if err := h.emit(ctx, tx, docket.NewDocketEvent(d, model.EventTypeUpdate, now)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// resolveEntry locates the docket entry a document belongs to. District
// uploads carry an entry number, appellate uploads a sequence number. When
// neither is present the entry of a previously seen document with the same
// identifier is reused, and only if that also fails is a new unnumbered
// entry created.
func (h *IngestHandler) resolveEntry(ctx context.Context, tx *pg.Tx, d *docket.Docket, p *DocumentPayload, now time.Time, res *IngestResult) (*docket.DocketEntry, error) {
	e := new(docket.DocketEntry)
	q := tx.ModelContext(ctx, e).
		Where("docket_id = ?", d.ID).
		For("UPDATE")

	var err error
	switch {
	case p.EntryNumber != nil:
		err = q.Where("entry_number = ?", *p.EntryNumber).Select()
	case p.RecapSequenceNumber != "":
		err = q.Where("recap_sequence_number = ?", p.RecapSequenceNumber).Select()
	default:
		err = q.Where(
			`id IN (SELECT docket_entry_id FROM search_recapdocument WHERE (pacer_doc_id <> '' AND pacer_doc_id = ?) OR (acms_document_guid <> '' AND acms_document_guid = ?))`,
			pacer.NormalizeDocID(p.PacerDocID), p.AcmsDocumentGUID,
		).Limit(1).Select()
	}

	switch {
	case errors.Is(err, pg.ErrNoRows):
		e = &docket.DocketEntry{
			DateCreated:         now,
			DateModified:        now,
			DocketID:            d.ID,
			DateFiled:           p.FiledDate(),
			EntryNumber:         p.EntryNumber,
			RecapSequenceNumber: p.RecapSequenceNumber,
			Description:         p.EntryDescription,
		}
		if _, err := tx.ModelContext(ctx, e).Insert(); err != nil {
			return nil, fmt.Errorf("insert docket entry: %w", err)
		}
		res.Created++
		if err := h.emit(ctx, tx, docket.NewDocketEntryEvent(e, model.EventTypeCreate, now)); err != nil {
			return nil, err
		}

	case err != nil:
		return nil, fmt.Errorf("select docket entry: %w", err)

	default:
		changed := false
		if fd := p.FiledDate(); fd != nil && !sameDate(e.DateFiled, fd) {
			e.DateFiled = fd
			changed = true
		}
		if p.EntryNumber != nil && e.EntryNumber == nil {
			e.EntryNumber = p.EntryNumber
			changed = true
		}
		if p.RecapSequenceNumber != "" && e.RecapSequenceNumber != p.RecapSequenceNumber {
			e.RecapSequenceNumber = p.RecapSequenceNumber
			changed = true
		}
		if p.EntryDescription != "" && e.Description != p.EntryDescription {
			e.Description = p.EntryDescription
			changed = true
		}
		if !changed {
			return e, nil
		}
		e.DateModified = now
		if _, err := tx.ModelContext(ctx, e).WherePK().Update(); err != nil {
			return nil, fmt.Errorf("update docket entry: %w", err)
		}
		res.Updated++
		if err := h.emit(ctx, tx, docket.NewDocketEntryEvent(e, model.EventTypeUpdate, now)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// resolveDocument creates or refreshes the document row within its entry.
// The stored pacer_doc_id always has the fourth digit normalized, whatever
// the uploader sent.
func (h *IngestHandler) resolveDocument(ctx context.Context, tx *pg.Tx, e *docket.DocketEntry, p *DocumentPayload, now time.Time, res *IngestResult) (*recap.RECAPDocument, error) {
	docID := pacer.NormalizeDocID(p.PacerDocID)
	docType := p.DocumentType()

	rd := new(recap.RECAPDocument)
	q := tx.ModelContext(ctx, rd).
		Where("docket_entry_id = ?", e.ID).
		Where("document_type = ?", docType).
		For("UPDATE")
	if p.AttachmentNumber != nil {
		q = q.Where("attachment_number = ?", *p.AttachmentNumber)
	} else {
		q = q.Where("attachment_number IS NULL")
	}
	switch {
	case p.DocumentNumber != "":
		q = q.Where("document_number = ?", p.DocumentNumber)
	case docID != "":
		q = q.Where("pacer_doc_id = ?", docID)
	default:
		q = q.Where("acms_document_guid = ?", p.AcmsDocumentGUID)
	}
	err := q.Select()

	switch {
	case errors.Is(err, pg.ErrNoRows):
		rd = &recap.RECAPDocument{
			DateCreated:      now,
			DateModified:     now,
			DocketEntryID:    e.ID,
			DocumentType:     docType,
			DocumentNumber:   p.DocumentNumber,
			AttachmentNumber: p.AttachmentNumber,
			PacerDocID:       docID,
			AcmsDocumentGUID: p.AcmsDocumentGUID,
			IsAvailable:      p.IsAvailable,
			Sha1:             p.Sha1,
			PageCount:        p.PageCount,
			FileSize:         p.FileSize,
			FilepathLocal:    p.FilepathLocal,
			Description:      p.Description,
		}
		if _, err := tx.ModelContext(ctx, rd).Insert(); err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
		res.Created++
		if err := h.emit(ctx, tx, recap.NewRECAPDocumentEvent(rd, model.EventTypeCreate, now)); err != nil {
			return nil, err
		}

	case err != nil:
		return nil, fmt.Errorf("select document: %w", err)

	default:
		changed := false
		if docID != "" && rd.PacerDocID != docID {
			rd.PacerDocID = docID
			changed = true
		}
		if p.AcmsDocumentGUID != "" && rd.AcmsDocumentGUID != p.AcmsDocumentGUID {
			rd.AcmsDocumentGUID = p.AcmsDocumentGUID
			changed = true
		}
		if p.Sha1 != "" && rd.Sha1 != p.Sha1 {
			rd.Sha1 = p.Sha1
			changed = true
		}
		if p.PageCount != nil && (rd.PageCount == nil || *rd.PageCount != *p.PageCount) {
			rd.PageCount = p.PageCount
			changed = true
		}
		if p.FileSize != nil && (rd.FileSize == nil || *rd.FileSize != *p.FileSize) {
			rd.FileSize = p.FileSize
			changed = true
		}
		if p.FilepathLocal != "" && rd.FilepathLocal != p.FilepathLocal {
			rd.FilepathLocal = p.FilepathLocal
			changed = true
		}
		// An upload can make a document available but never the reverse.
		if p.IsAvailable && !rd.IsAvailable {
			rd.IsAvailable = true
			changed = true
		}
		if p.Description != "" && rd.Description != p.Description {
			rd.Description = p.Description
			changed = true
		}
		if !changed {
			return rd, nil
		}
		rd.DateModified = now
		if _, err := tx.ModelContext(ctx, rd).WherePK().Update(); err != nil {
			return nil, fmt.Errorf("update document: %w", err)
		}
		res.Updated++
		if err := h.emit(ctx, tx, recap.NewRECAPDocumentEvent(rd, model.EventTypeUpdate, now)); err != nil {
			return nil, err
		}
	}
	return rd, nil
}

func (h *IngestHandler) emit(ctx context.Context, tx *pg.Tx, ev interface{}) error {
	if _, err := tx.ModelContext(ctx, ev).Insert(); err != nil {
		return fmt.Errorf("insert event row: %w", err)
	}
	return nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
