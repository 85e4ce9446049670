package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-pg/pg/v10"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/pacer"
	"github.com/gavelhq/gavel/worker"
)

func (s *Server) lookupCap() int {
	if s.cfg.LookupCap > 0 {
		return s.cfg.LookupCap
	}
	return 250
}

// A DocumentLookupResponse is one hit of the fast document lookup: enough to
// tell a client the archive already holds the document and where it hangs.
type DocumentLookupResponse struct {
	ID               int64  `json:"id"`
	PacerDocID       string `json:"pacer_doc_id"`
	AcmsDocumentGUID string `json:"acms_document_guid"`
	DocumentNumber   string `json:"document_number"`
	AttachmentNumber *int   `json:"attachment_number"`
	IsAvailable      bool   `json:"is_available"`
	FilepathLocal    string `json:"filepath_local"`
	DocketEntry      int64  `json:"docket_entry"`
	Docket           int64  `json:"docket"`
	Court            string `json:"court"`
}

type lookupRow struct {
	ID               int64
	PacerDocID       string
	AcmsDocumentGUID string
	DocumentNumber   string
	AttachmentNumber *int
	IsAvailable      bool
	FilepathLocal    string
	DocketEntryID    int64
	DocketID         int64
	CourtID          string
}

// lookupDocuments answers "which of these ids does the archive already
// have" for one court. Identifiers are normalized before matching, absent
// ones are simply omitted from the result, and the result set is capped.
func (s *Server) lookupDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	for param := range query {
		if param != "court" && param != "pacer_doc_id__in" {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown query parameter %q", param))
			return
		}
	}

	courtID := query.Get("court")
	rawIDs := query.Get("pacer_doc_id__in")
	if courtID == "" || rawIDs == "" {
		s.writeError(w, http.StatusBadRequest, "court and pacer_doc_id__in are required")
		return
	}

	ids := pacer.NormalizeDocIDs(strings.Split(rawIDs, ","))
	if len(ids) == 0 {
		s.writeError(w, http.StatusBadRequest, "pacer_doc_id__in carried no identifiers")
		return
	}
	limit := s.lookupCap()
	if len(ids) > limit {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("too many identifiers: %d exceeds the limit of %d", len(ids), limit))
		return
	}

	lookup := `SELECT rd.id, rd.pacer_doc_id, rd.acms_document_guid, rd.document_number, rd.attachment_number,
	rd.is_available, rd.filepath_local, de.id AS docket_entry_id, d.id AS docket_id, d.court_id
FROM search_recapdocument rd
JOIN search_docketentry de ON de.id = rd.docket_entry_id
JOIN search_docket d ON d.id = de.docket_id
WHERE d.court_id = ? AND rd.pacer_doc_id IN (?)
ORDER BY rd.pacer_doc_id, rd.id
LIMIT ?`

	var rows []lookupRow
	stop := metrics.Timer(r.Context(), metrics.QueryDuration)
	_, err := s.db.AsORM().QueryContext(r.Context(), &rows, lookup, courtID, pg.In(ids), limit)
	stop()
	if err != nil {
		s.fail(w, err)
		return
	}

	results := make([]*DocumentLookupResponse, 0, len(rows))
	for _, row := range rows {
		results = append(results, &DocumentLookupResponse{
			ID:               row.ID,
			PacerDocID:       row.PacerDocID,
			AcmsDocumentGUID: row.AcmsDocumentGUID,
			DocumentNumber:   row.DocumentNumber,
			AttachmentNumber: row.AttachmentNumber,
			IsAvailable:      row.IsAvailable,
			FilepathLocal:    row.FilepathLocal,
			DocketEntry:      row.DocketEntryID,
			Docket:           row.DocketID,
			Court:            row.CourtID,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}

// uploadRequest is the POST /recap/ body: a document sighting plus an
// optional queue priority.
type uploadRequest struct {
	worker.DocumentPayload
	Priority string `json:"priority"`
}

const maxUploadBody = 1 << 20

// uploadDocument accepts a document sighting and enqueues it for ingestion.
// The upload is not applied synchronously: a 202 means the task is queued,
// not that the document is stored.
func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if s.producer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Uploads are not accepted on this instance.")
		return
	}

	var req uploadRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxUploadBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed upload: %v", err))
		return
	}
	if err := req.DocumentPayload.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	priority := worker.Medium
	switch strings.ToLower(req.Priority) {
	case "":
	case "high":
		priority = worker.High
	case "medium":
	case "low":
		priority = worker.Low
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid priority %q, choose high, medium or low", req.Priority))
		return
	}

	taskID, err := s.producer.Document(r.Context(), &req.DocumentPayload, priority)
	if err != nil {
		log.Errorw("upload enqueue failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to enqueue the upload.")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  "queued",
	})
}
