package api

import (
	"net/http"
	"time"

	"github.com/gavelhq/gavel/model/court"
	"github.com/gavelhq/gavel/model/recap"
)

// dateString renders a date-typed column for JSON: date only, null when the
// row holds NULL.
func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

var courtOrdering = OrderingSpec{
	Default: "position",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "position", Column: "position", Field: "Position"},
	},
}

var courtFilters = []Filter{
	textFilter("jurisdiction", "jurisdiction"),
	boolFilter("in_use", "in_use"),
	boolFilter("has_recap_data", "has_recap_data"),
}

type CourtResponse struct {
	ID             string    `json:"id"`
	DateModified   time.Time `json:"date_modified"`
	FullName       string    `json:"full_name"`
	ShortName      string    `json:"short_name"`
	CitationString string    `json:"citation_string"`
	URL            string    `json:"url"`
	Jurisdiction   string    `json:"jurisdiction"`
	Position       float64   `json:"position"`
	InUse          bool      `json:"in_use"`
	HasRecapData   bool      `json:"has_recap_data"`
	StartDate      *string   `json:"start_date"`
	EndDate        *string   `json:"end_date"`
}

func newCourtResponse(c *court.Court) *CourtResponse {
	return &CourtResponse{
		ID:             c.ID,
		DateModified:   c.DateModified,
		FullName:       c.FullName,
		ShortName:      c.ShortName,
		CitationString: c.CitationString,
		URL:            c.URL,
		Jurisdiction:   c.Jurisdiction,
		Position:       c.Position,
		InUse:          c.InUse,
		HasRecapData:   c.HasRecapData,
		StartDate:      dateString(c.StartDate),
		EndDate:        dateString(c.EndDate),
	}
}

func (s *Server) listCourts(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, courtOrdering, courtFilters)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*court.Court
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

	results := make([]*CourtResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		results = append(results, newCourtResponse(row.(*court.Court)))
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}

var ociOrdering = OrderingSpec{
	Default: "id",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "date_filed", Column: "COALESCE(date_filed, '-infinity'::date)", Field: "DateFiled", Sentinel: "-infinity"},
	},
}

var ociFilters = []Filter{
	{
		// docket resolves the one row referenced by a docket, letting clients
		// follow the originating_court_information id they already hold or go
		// the other way.
		Param: "docket",
		Apply: docketReferenceApply,
	},
	textFilter("docket_number", "docket_number"),
}

type OriginatingCourtInformationResponse struct {
	ID               int64     `json:"id"`
	DateCreated      time.Time `json:"date_created"`
	DateModified     time.Time `json:"date_modified"`
	DocketNumber     string    `json:"docket_number"`
	AssignedToStr    string    `json:"assigned_to_str"`
	OrderingJudgeStr string    `json:"ordering_judge_str"`
	CourtReporter    string    `json:"court_reporter"`
	DateDisposed     *string   `json:"date_disposed"`
	DateFiled        *string   `json:"date_filed"`
	DateJudgment     *string   `json:"date_judgment"`
	DateJudgmentEOD  *string   `json:"date_judgment_eod"`
	DateFiledNOA     *string   `json:"date_filed_noa"`
	DateReceivedCOA  *string   `json:"date_received_coa"`
}

func newOCIResponse(o *court.OriginatingCourtInformation) *OriginatingCourtInformationResponse {
	return &OriginatingCourtInformationResponse{
		ID:               o.ID,
		DateCreated:      o.DateCreated,
		DateModified:     o.DateModified,
		DocketNumber:     o.DocketNumber,
		AssignedToStr:    o.AssignedToStr,
		OrderingJudgeStr: o.OrderingJudgeStr,
		CourtReporter:    o.CourtReporter,
		DateDisposed:     dateString(o.DateDisposed),
		DateFiled:        dateString(o.DateFiled),
		DateJudgment:     dateString(o.DateJudgment),
		DateJudgmentEOD:  dateString(o.DateJudgmentEOD),
		DateFiledNOA:     dateString(o.DateFiledNOA),
		DateReceivedCOA:  dateString(o.DateReceivedCOA),
	}
}

func (s *Server) listOriginatingCourtInformation(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, ociOrdering, ociFilters)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*court.OriginatingCourtInformation
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

	results := make([]*OriginatingCourtInformationResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		results = append(results, newOCIResponse(row.(*court.OriginatingCourtInformation)))
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}

var fjcOrdering = OrderingSpec{
	Default: "id",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "date_filed", Column: "COALESCE(date_filed, '-infinity'::date)", Field: "DateFiled", Sentinel: "-infinity"},
	},
}

var fjcFilters = []Filter{
	textFilter("circuit", "circuit_id"),
	textFilter("district", "district_id"),
	textFilter("docket_number", "docket_number"),
	intFilter("dataset_source", "dataset_source"),
}

type FJCIntegratedDatabaseResponse struct {
	ID             int64     `json:"id"`
	DateCreated    time.Time `json:"date_created"`
	DateModified   time.Time `json:"date_modified"`
	DatasetSource  int       `json:"dataset_source"`
	Circuit        string    `json:"circuit"`
	District       string    `json:"district"`
	DocketNumber   string    `json:"docket_number"`
	Origin         *int      `json:"origin"`
	DateFiled      *string   `json:"date_filed"`
	Jurisdiction   *int      `json:"jurisdiction"`
	NatureOfSuit   *int      `json:"nature_of_suit"`
	Title          string    `json:"title"`
	Plaintiff      string    `json:"plaintiff"`
	Defendant      string    `json:"defendant"`
	DateTerminated *string   `json:"date_terminated"`
	Disposition    *int      `json:"disposition"`
	ProSe          *int      `json:"pro_se"`
}

func newFJCResponse(f *recap.FJCIntegratedDatabase) *FJCIntegratedDatabaseResponse {
	return &FJCIntegratedDatabaseResponse{
		ID:             f.ID,
		DateCreated:    f.DateCreated,
		DateModified:   f.DateModified,
		DatasetSource:  f.DatasetSource,
		Circuit:        f.CircuitID,
		District:       f.DistrictID,
		DocketNumber:   f.DocketNumber,
		Origin:         f.Origin,
		DateFiled:      dateString(f.DateFiled),
		Jurisdiction:   f.Jurisdiction,
		NatureOfSuit:   f.NatureOfSuit,
		Title:          f.Title,
		Plaintiff:      f.Plaintiff,
		Defendant:      f.Defendant,
		DateTerminated: dateString(f.DateTerminated),
		Disposition:    f.Disposition,
		ProSe:          f.ProSe,
	}
}

func (s *Server) listFJC(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, fjcOrdering, fjcFilters)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*recap.FJCIntegratedDatabase
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

	results := make([]*FJCIntegratedDatabaseResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		results = append(results, newFJCResponse(row.(*recap.FJCIntegratedDatabase)))
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}
