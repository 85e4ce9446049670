package api

import (
	"net/http"
	"time"

	"github.com/gavelhq/gavel/model/docket"
	"github.com/gavelhq/gavel/model/recap"
)

var docketOrdering = OrderingSpec{
	Default: "id",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "date_filed", Column: "COALESCE(date_filed, '-infinity'::date)", Field: "DateFiled", Sentinel: "-infinity"},
	},
}

var docketFilters = []Filter{
	textFilter("court", "court_id"),
	textFilter("pacer_case_id", "pacer_case_id"),
	textFilter("docket_number", "docket_number"),
	textFilter("docket_number_core", "docket_number_core"),
	dateFilter("date_filed__gte", "date_filed", ">="),
	dateFilter("date_filed__lte", "date_filed", "<="),
}

type DocketResponse struct {
	ID                          int64     `json:"id"`
	DateCreated                 time.Time `json:"date_created"`
	DateModified                time.Time `json:"date_modified"`
	Source                      int       `json:"source"`
	Court                       string    `json:"court"`
	OriginatingCourtInformation *int64    `json:"originating_court_information"`
	CaseName                    string    `json:"case_name"`
	CaseNameShort               string    `json:"case_name_short"`
	CaseNameFull                string    `json:"case_name_full"`
	Slug                        string    `json:"slug"`
	DocketNumber                string    `json:"docket_number"`
	DocketNumberCore            string    `json:"docket_number_core"`
	PacerCaseID                 string    `json:"pacer_case_id"`
	DateFiled                   *string   `json:"date_filed"`
	DateTerminated              *string   `json:"date_terminated"`
	DateLastFiling              *string   `json:"date_last_filing"`
	AssignedToStr               string    `json:"assigned_to_str"`
	ReferredToStr               string    `json:"referred_to_str"`
	Cause                       string    `json:"cause"`
	NatureOfSuit                string    `json:"nature_of_suit"`
	JuryDemand                  string    `json:"jury_demand"`
	JurisdictionType            string    `json:"jurisdiction_type"`
	Blocked                     bool      `json:"blocked"`
	DateBlocked                 *string   `json:"date_blocked"`
}

func newDocketResponse(d *docket.Docket) *DocketResponse {
	return &DocketResponse{
		ID:                          d.ID,
		DateCreated:                 d.DateCreated,
		DateModified:                d.DateModified,
		Source:                      d.Source,
		Court:                       d.CourtID,
		OriginatingCourtInformation: d.OriginatingCourtInformationID,
		CaseName:                    d.CaseName,
		CaseNameShort:               d.CaseNameShort,
		CaseNameFull:                d.CaseNameFull,
		Slug:                        d.Slug,
		DocketNumber:                d.DocketNumber,
		DocketNumberCore:            d.DocketNumberCore,
		PacerCaseID:                 d.PacerCaseID,
		DateFiled:                   dateString(d.DateFiled),
		DateTerminated:              dateString(d.DateTerminated),
		DateLastFiling:              dateString(d.DateLastFiling),
		AssignedToStr:               d.AssignedToStr,
		ReferredToStr:               d.ReferredToStr,
		Cause:                       d.Cause,
		NatureOfSuit:                d.NatureOfSuit,
		JuryDemand:                  d.JuryDemand,
		JurisdictionType:            d.JurisdictionType,
		Blocked:                     d.Blocked,
		DateBlocked:                 dateString(d.DateBlocked),
	}
}

func (s *Server) listDockets(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, docketOrdering, docketFilters)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*docket.Docket
	q, err := req.Apply(s.db.AsORM().ModelContext(r.Context(), &rows))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.selectRows(r.Context(), q); err != nil {
		s.fail(w, err)
		return
	}

	items := make([]interface{}, len(rows))
	for i := range rows {
		items[i] = rows[i]
	}
	win := req.window(items)

	results := make([]*DocketResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		results = append(results, newDocketResponse(row.(*docket.Docket)))
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}

// Docket entry ordering defaults to the composite documented for clients:
// recap_sequence_number first because appellate courts do not assign entry
// numbers, entry_number to break ties among the district courts that do.
var docketEntryOrdering = OrderingSpec{
	Default: "recap_sequence_number,entry_number",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "date_filed", Column: "COALESCE(date_filed, '-infinity'::date)", Field: "DateFiled", Sentinel: "-infinity"},
		{Name: "recap_sequence_number", Column: "recap_sequence_number", Field: "RecapSequenceNumber"},
		{Name: "entry_number", Column: "COALESCE(entry_number, 0)", Field: "EntryNumber", Sentinel: "0"},
	},
}

var docketEntryFilters = []Filter{
	intFilter("docket", "docket_id"),
	intFilter("entry_number", "entry_number"),
	dateFilter("date_filed__gte", "date_filed", ">="),
	dateFilter("date_filed__lte", "date_filed", "<="),
}

type DocketEntryResponse struct {
	ID                  int64     `json:"id"`
	Docket              int64     `json:"docket"`
	DateCreated         time.Time `json:"date_created"`
	DateModified        time.Time `json:"date_modified"`
	DateFiled           *string   `json:"date_filed"`
	EntryNumber         *int64    `json:"entry_number"`
	RecapSequenceNumber string    `json:"recap_sequence_number"`
	PacerSequenceNumber *int64    `json:"pacer_sequence_number"`
	Description         string    `json:"description"`
}

func newDocketEntryResponse(d *docket.DocketEntry) *DocketEntryResponse {
	return &DocketEntryResponse{
		ID:                  d.ID,
		Docket:              d.DocketID,
		DateCreated:         d.DateCreated,
		DateModified:        d.DateModified,
		DateFiled:           dateString(d.DateFiled),
		EntryNumber:         d.EntryNumber,
		RecapSequenceNumber: d.RecapSequenceNumber,
		PacerSequenceNumber: d.PacerSequenceNumber,
		Description:         d.Description,
	}
}

func (s *Server) listDocketEntries(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, docketEntryOrdering, docketEntryFilters)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*docket.DocketEntry
	q, err := req.Apply(s.db.AsORM().ModelContext(r.Context(), &rows))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.selectRows(r.Context(), q); err != nil {
		s.fail(w, err)
		return
	}

	items := make([]interface{}, len(rows))
	for i := range rows {
		items[i] = rows[i]
	}
	win := req.window(items)

	results := make([]*DocketEntryResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		results = append(results, newDocketEntryResponse(row.(*docket.DocketEntry)))
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}

var documentOrdering = OrderingSpec{
	Default: "id",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
	},
}

var documentFilters = []Filter{
	intFilter("docket_entry", "docket_entry_id"),
	pacerDocIDFilter("pacer_doc_id", "pacer_doc_id"),
	textFilter("acms_document_guid", "acms_document_guid"),
	boolFilter("is_available", "is_available"),
	intFilter("document_type", "document_type"),
}

type RECAPDocumentResponse struct {
	ID               int64     `json:"id"`
	DocketEntry      int64     `json:"docket_entry"`
	DateCreated      time.Time `json:"date_created"`
	DateModified     time.Time `json:"date_modified"`
	DocumentType     int       `json:"document_type"`
	DocumentNumber   string    `json:"document_number"`
	AttachmentNumber *int      `json:"attachment_number"`
	PacerDocID       string    `json:"pacer_doc_id"`
	AcmsDocumentGUID string    `json:"acms_document_guid"`
	IsAvailable      bool      `json:"is_available"`
	Sha1             string    `json:"sha1"`
	PageCount        *int      `json:"page_count"`
	FileSize         *int64    `json:"file_size"`
	FilepathLocal    string    `json:"filepath_local"`
	FilepathIA       string    `json:"filepath_ia"`
	OCRStatus        *int      `json:"ocr_status"`
	IsFreeOnPacer    *bool     `json:"is_free_on_pacer"`
	IsSealed         *bool     `json:"is_sealed"`
	Description      string    `json:"description"`
}

func newRECAPDocumentResponse(d *recap.RECAPDocument) *RECAPDocumentResponse {
	return &RECAPDocumentResponse{
		ID:               d.ID,
		DocketEntry:      d.DocketEntryID,
		DateCreated:      d.DateCreated,
		DateModified:     d.DateModified,
		DocumentType:     d.DocumentType,
		DocumentNumber:   d.DocumentNumber,
		AttachmentNumber: d.AttachmentNumber,
		PacerDocID:       d.PacerDocID,
		AcmsDocumentGUID: d.AcmsDocumentGUID,
		IsAvailable:      d.IsAvailable,
		Sha1:             d.Sha1,
		PageCount:        d.PageCount,
		FileSize:         d.FileSize,
		FilepathLocal:    d.FilepathLocal,
		FilepathIA:       d.FilepathIA,
		OCRStatus:        d.OCRStatus,
		IsFreeOnPacer:    d.IsFreeOnPacer,
		IsSealed:         d.IsSealed,
		Description:      d.Description,
	}
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, documentOrdering, documentFilters)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*recap.RECAPDocument
	q, err := req.Apply(s.db.AsORM().ModelContext(r.Context(), &rows))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.selectRows(r.Context(), q); err != nil {
		s.fail(w, err)
		return
	}

	items := make([]interface{}, len(rows))
	for i := range rows {
		items[i] = rows[i]
	}
	win := req.window(items)

	results := make([]*RECAPDocumentResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		results = append(results, newRECAPDocumentResponse(row.(*recap.RECAPDocument)))
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}
