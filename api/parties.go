package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pg/pg/v10"

	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/model/party"
)

var partyOrdering = OrderingSpec{
	Default: "id",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "name", Column: "name", Field: "Name"},
	},
}

var partyFilters = []Filter{
	docketRoleFilter("docket", "party_id"),
	textFilter("name", "name"),
}

var attorneyOrdering = OrderingSpec{
	Default: "id",
	PK:      OrderKey{Name: "id", Column: "id", Field: "ID"},
	Keys: []OrderKey{
		{Name: "id", Column: "id", Field: "ID"},
		{Name: "date_created", Column: "date_created", Field: "DateCreated"},
		{Name: "date_modified", Column: "date_modified", Field: "DateModified"},
		{Name: "name", Column: "name", Field: "Name"},
	},
}

var attorneyFilters = []Filter{
	docketRoleFilter("docket", "attorney_id"),
	textFilter("name", "name"),
}

// nestedRestriction parses filter_nested_results. Nested rows are unfiltered
// by default even when the parent collection is narrowed to one docket;
// opting in restricts them to the docket named by the docket filter, which
// must then be present.
func nestedRestriction(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("filter_nested_results")
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("invalid filter_nested_results %q", raw)
	}
	if !b {
		return nil, nil
	}
	rawDocket := r.URL.Query().Get("docket")
	if rawDocket == "" {
		return nil, badRequest("filter_nested_results=true requires the docket filter")
	}
	id, err := strconv.ParseInt(rawDocket, 10, 64)
	if err != nil {
		return nil, badRequest("expected a docket id")
	}
	return &id, nil
}

type PartyAttorneyResponse struct {
	AttorneyID int64   `json:"attorney_id"`
	Attorney   string  `json:"attorney"`
	DocketID   int64   `json:"docket_id"`
	Role       int     `json:"role"`
	DateAction *string `json:"date_action"`
}

type PartyResponse struct {
	ID           int64                    `json:"id"`
	DateCreated  time.Time                `json:"date_created"`
	DateModified time.Time                `json:"date_modified"`
	Name         string                   `json:"name"`
	ExtraInfo    string                   `json:"extra_info"`
	Attorneys    []*PartyAttorneyResponse `json:"attorneys"`
}

type partyAttorneyRow struct {
	PartyID    int64
	AttorneyID int64
	Attorney   string
	DocketID   int64
	Role       int
	DateAction *time.Time
}

// partyAttorneys loads the representation history of a page of parties in one
// query, keyed by party id. A non-nil docket restricts rows to that docket.
func (s *Server) partyAttorneys(ctx context.Context, partyIDs []int64, docket *int64) (map[int64][]*PartyAttorneyResponse, error) {
	out := make(map[int64][]*PartyAttorneyResponse, len(partyIDs))
	if len(partyIDs) == 0 {
		return out, nil
	}

	query := `SELECT r.party_id, r.attorney_id, a.name AS attorney, r.docket_id, r.role, r.date_action
FROM people_role r
JOIN people_attorney a ON a.id = r.attorney_id
WHERE r.party_id IN (?)`
	args := []interface{}{pg.In(partyIDs)}
	if docket != nil {
		query += ` AND r.docket_id = ?`
		args = append(args, *docket)
	}
	query += ` ORDER BY r.party_id, r.docket_id, r.attorney_id, r.id`

	var rows []partyAttorneyRow
	stop := metrics.Timer(ctx, metrics.QueryDuration)
	_, err := s.db.AsORM().QueryContext(ctx, &rows, query, args...)
	stop()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.PartyID] = append(out[row.PartyID], &PartyAttorneyResponse{
			AttorneyID: row.AttorneyID,
			Attorney:   row.Attorney,
			DocketID:   row.DocketID,
			Role:       row.Role,
			DateAction: dateString(row.DateAction),
		})
	}
	return out, nil
}

func (s *Server) listParties(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, partyOrdering, partyFilters, "filter_nested_results")
	if err != nil {
		s.fail(w, err)
		return
	}
	restrict, err := nestedRestriction(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*party.Party
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

	ids := make([]int64, 0, len(win.Rows))
	for _, row := range win.Rows {
		ids = append(ids, row.(*party.Party).ID)
	}
	attorneys, err := s.partyAttorneys(r.Context(), ids, restrict)
	if err != nil {
		s.fail(w, err)
		return
	}

	results := make([]*PartyResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		p := row.(*party.Party)
		nested := attorneys[p.ID]
		if nested == nil {
			nested = []*PartyAttorneyResponse{}
		}
		results = append(results, &PartyResponse{
			ID:           p.ID,
			DateCreated:  p.DateCreated,
			DateModified: p.DateModified,
			Name:         p.Name,
			ExtraInfo:    p.ExtraInfo,
			Attorneys:    nested,
		})
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}

type AttorneyPartyResponse struct {
	PartyID    int64   `json:"party_id"`
	Party      string  `json:"party"`
	DocketID   int64   `json:"docket_id"`
	Role       int     `json:"role"`
	DateAction *string `json:"date_action"`
}

type AttorneyResponse struct {
	ID                 int64                    `json:"id"`
	DateCreated        time.Time                `json:"date_created"`
	DateModified       time.Time                `json:"date_modified"`
	Name               string                   `json:"name"`
	ContactRaw         string                   `json:"contact_raw"`
	Phone              string                   `json:"phone"`
	Fax                string                   `json:"fax"`
	Email              string                   `json:"email"`
	PartiesRepresented []*AttorneyPartyResponse `json:"parties_represented"`
}

type attorneyPartyRow struct {
	AttorneyID int64
	PartyID    int64
	Party      string
	DocketID   int64
	Role       int
	DateAction *time.Time
}

func (s *Server) attorneyParties(ctx context.Context, attorneyIDs []int64, docket *int64) (map[int64][]*AttorneyPartyResponse, error) {
	out := make(map[int64][]*AttorneyPartyResponse, len(attorneyIDs))
	if len(attorneyIDs) == 0 {
		return out, nil
	}

	query := `SELECT r.attorney_id, r.party_id, p.name AS party, r.docket_id, r.role, r.date_action
FROM people_role r
JOIN people_party p ON p.id = r.party_id
WHERE r.attorney_id IN (?)`
	args := []interface{}{pg.In(attorneyIDs)}
	if docket != nil {
		query += ` AND r.docket_id = ?`
		args = append(args, *docket)
	}
	query += ` ORDER BY r.attorney_id, r.docket_id, r.party_id, r.id`

	var rows []attorneyPartyRow
	stop := metrics.Timer(ctx, metrics.QueryDuration)
	_, err := s.db.AsORM().QueryContext(ctx, &rows, query, args...)
	stop()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.AttorneyID] = append(out[row.AttorneyID], &AttorneyPartyResponse{
			PartyID:    row.PartyID,
			Party:      row.Party,
			DocketID:   row.DocketID,
			Role:       row.Role,
			DateAction: dateString(row.DateAction),
		})
	}
	return out, nil
}

func (s *Server) listAttorneys(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseListRequest(r, attorneyOrdering, attorneyFilters, "filter_nested_results")
	if err != nil {
		s.fail(w, err)
		return
	}
	restrict, err := nestedRestriction(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []*party.Attorney
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

	ids := make([]int64, 0, len(win.Rows))
	for _, row := range win.Rows {
		ids = append(ids, row.(*party.Attorney).ID)
	}
	parties, err := s.attorneyParties(r.Context(), ids, restrict)
	if err != nil {
		s.fail(w, err)
		return
	}

	results := make([]*AttorneyResponse, 0, len(win.Rows))
	for _, row := range win.Rows {
		a := row.(*party.Attorney)
		nested := parties[a.ID]
		if nested == nil {
			nested = []*AttorneyPartyResponse{}
		}
		results = append(results, &AttorneyResponse{
			ID:                 a.ID,
			DateCreated:        a.DateCreated,
			DateModified:       a.DateModified,
			Name:               a.Name,
			ContactRaw:         a.ContactRaw,
			Phone:              a.Phone,
			Fax:                a.Fax,
			Email:              a.Email,
			PartiesRepresented: nested,
		})
	}
	s.writeJSON(w, http.StatusOK, envelope(r, win, results))
}
