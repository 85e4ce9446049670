package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pg/pg/v10/orm"
	"github.com/go-redis/redis_rate/v10"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/storage"
	"github.com/gavelhq/gavel/version"
	"github.com/gavelhq/gavel/worker"
)

var log = logging.Logger("gavel/api")

const apiPrefix = "/api/rest/v4"

// Server is the public REST API, run as a scheduler job. Every endpoint
// requires token authentication; a subset is further gated on the token's
// recap permission. The producer may be nil, in which case uploads are
// refused, and the limiter may be nil to disable rate limiting.
type Server struct {
	db       *storage.Database
	cfg      config.APIConf
	tokens   TokenSource
	producer worker.Producer
	limiter  *redis_rate.Limiter

	router    *mux.Router
	endpoints []*endpoint

	done chan struct{}
}

func NewServer(db *storage.Database, tokens TokenSource, producer worker.Producer, limiter *redis_rate.Limiter, cfg config.APIConf) *Server {
	s := &Server{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		producer: producer,
		limiter:  limiter,
	}
	s.routes()
	return s
}

// An endpoint couples a route to its handler and to the request surface the
// OPTIONS metadata documents.
type endpoint struct {
	Slug        string
	Name        string
	Description string
	Gated       bool
	RateLimited bool
	List        bool
	Ordering    OrderingSpec
	Filters     []Filter
	Extra       []string
	Notes       []string
	Get         http.HandlerFunc
	Post        http.HandlerFunc
}

func (e *endpoint) allowedMethods() []string {
	var methods []string
	if e.Get != nil {
		methods = append(methods, http.MethodGet)
	}
	if e.Post != nil {
		methods = append(methods, http.MethodPost)
	}
	return append(methods, http.MethodOptions)
}

type endpointMetadata struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	AllowedMethods  []string `json:"allowed_methods"`
	OrderingFields  []string `json:"ordering_fields,omitempty"`
	DefaultOrdering string   `json:"default_ordering,omitempty"`
	Filters         []string `json:"filters,omitempty"`
	DefaultPageSize int      `json:"default_page_size,omitempty"`
	MaxPageSize     int      `json:"max_page_size,omitempty"`
	Notes           []string `json:"notes,omitempty"`
}

func (e *endpoint) metadata(cfg config.APIConf) endpointMetadata {
	md := endpointMetadata{
		Name:           e.Name,
		Description:    e.Description,
		AllowedMethods: e.allowedMethods(),
		Filters:        filterNames(e.Filters),
		Notes:          e.Notes,
	}
	if e.List {
		md.OrderingFields = e.Ordering.Names()
		md.DefaultOrdering = e.Ordering.Default
		md.DefaultPageSize = cfg.DefaultPageSize
		md.MaxPageSize = cfg.MaxPageSize
	}
	if e.Gated {
		md.Notes = append([]string{"Access requires recap permission on the API token."}, md.Notes...)
	}
	return md
}

func (s *Server) routes() {
	s.endpoints = []*endpoint{
		{
			Slug:        "courts",
			Name:        "Court List",
			Description: "Courts known to the archive, including defunct and synthetic jurisdictions.",
			List:        true,
			Ordering:    courtOrdering,
			Filters:     courtFilters,
			Get:         s.listCourts,
		},
		{
			Slug:        "dockets",
			Name:        "Docket List",
			Description: "Cases before a court. Entries, parties and attorneys join against a docket.",
			List:        true,
			Ordering:    docketOrdering,
			Filters:     docketFilters,
			Get:         s.listDockets,
		},
		{
			Slug:        "docket-entries",
			Name:        "Docket Entry List",
			Description: "Numbered rows of a case docket.",
			List:        true,
			Ordering:    docketEntryOrdering,
			Filters:     docketEntryFilters,
			Get:         s.listDocketEntries,
			Notes: []string{
				"Entry numbers are not guaranteed for appellate courts; the default ordering therefore sorts by recap_sequence_number first.",
			},
		},
		{
			Slug:        "recap-documents",
			Name:        "RECAP Document List",
			Description: "Filed documents and attachments hanging off docket entries.",
			List:        true,
			Ordering:    documentOrdering,
			Filters:     documentFilters,
			Get:         s.listDocuments,
			Notes: []string{
				"The fourth digit of a pacer_doc_id is stored normalized to 0; filters apply the same normalization.",
			},
		},
		{
			Slug:        "parties",
			Name:        "Party List",
			Description: "Parties appearing in cases, with their attorney representations nested.",
			Gated:       true,
			List:        true,
			Ordering:    partyOrdering,
			Filters:     partyFilters,
			Extra:       []string{"filter_nested_results"},
			Get:         s.listParties,
			Notes: []string{
				"Filtering by docket does not filter the nested attorneys: each party carries its full representation history, which can be large.",
				"Pass filter_nested_results=true together with docket to restrict nested rows to the same docket.",
			},
		},
		{
			Slug:        "attorneys",
			Name:        "Attorney List",
			Description: "Attorneys appearing in cases, with the parties they represent nested.",
			Gated:       true,
			List:        true,
			Ordering:    attorneyOrdering,
			Filters:     attorneyFilters,
			Extra:       []string{"filter_nested_results"},
			Get:         s.listAttorneys,
			Notes: []string{
				"Filtering by docket does not filter the nested parties unless filter_nested_results=true is also given.",
			},
		},
		{
			Slug:        "originating-court-information",
			Name:        "Originating Court Information List",
			Description: "Lower-court details behind appellate dockets.",
			List:        true,
			Ordering:    ociOrdering,
			Filters:     ociFilters,
			Get:         s.listOriginatingCourtInformation,
		},
		{
			Slug:        "fjc-integrated-database",
			Name:        "FJC Integrated Database List",
			Description: "Case metadata merged from the Federal Judicial Center's Integrated Database.",
			List:        true,
			Ordering:    fjcOrdering,
			Filters:     fjcFilters,
			Get:         s.listFJC,
			Notes: []string{
				"The upstream dataset is published best-effort; rows may be incomplete and may not join cleanly against dockets.",
			},
		},
		{
			Slug:        "recap-query",
			Name:        "Fast Document Lookup",
			Description: "Which of a list of PACER document ids are already in the archive.",
			Gated:       true,
			RateLimited: true,
			Filters: []Filter{
				{Param: "court"},
				{Param: "pacer_doc_id__in"},
			},
			Get: s.lookupDocuments,
			Notes: []string{
				"Returns only found documents; identifiers that are not in the archive are omitted, not errors.",
				fmt.Sprintf("At most %d results are returned per query.", s.lookupCap()),
				"The fourth digit of each queried pacer_doc_id is normalized to 0 before matching.",
			},
		},
		{
			Slug:        "recap",
			Name:        "RECAP Upload",
			Description: "Submit a document sighting for asynchronous ingestion.",
			Gated:       true,
			Post:        s.uploadDocument,
			Notes: []string{
				"Accepted uploads return 202 with the queued task id; ingestion happens asynchronously.",
			},
		},
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.notFound)

	sub := r.PathPrefix(apiPrefix).Subrouter()
	sub.NotFoundHandler = http.HandlerFunc(s.notFound)
	for _, e := range s.endpoints {
		sub.Handle("/"+e.Slug+"/", s.dispatch(e))
	}
	sub.Handle("/", s.instrument("root", s.authenticate(http.HandlerFunc(s.index))))

	s.router = r
}

// dispatch wires the middleware chain of one endpoint: instrumentation, then
// authentication, then the permission gate and rate limiter where configured,
// then method routing. OPTIONS is answered for every endpoint.
func (s *Server) dispatch(e *endpoint) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodOptions:
			s.writeJSON(w, http.StatusOK, e.metadata(s.cfg))
		case r.Method == http.MethodGet && e.Get != nil:
			e.Get(w, r)
		case r.Method == http.MethodPost && e.Post != nil:
			e.Post(w, r)
		default:
			w.Header().Set("Allow", strings.Join(e.allowedMethods(), ", "))
			s.writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
		}
	})
	if e.RateLimited {
		h = s.rateLimit(h)
	}
	if e.Gated {
		h = s.requireRecapPermission(h)
	}
	return s.instrument(e.Slug, s.authenticate(h))
}

// index lists the API's collection endpoints, mirroring the envelope clients
// use for discovery.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
		return
	}
	resources := make(map[string]string, len(s.endpoints))
	for _, e := range s.endpoints {
		u := url.URL{Host: r.Host, Path: apiPrefix + "/" + e.Slug + "/", Scheme: "http"}
		if r.TLS != nil {
			u.Scheme = "https"
		}
		resources[e.Slug] = u.String()
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   version.String(),
		"resources": resources,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "Not found.")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// instrument tags the request context with the endpoint name for the metric
// views and logs the request outcome.
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := tag.New(r.Context(), tag.Upsert(metrics.Endpoint, name))
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(ctx))
		log.Debugw("request",
			"endpoint", name,
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", sw.status,
			"elapsed", time.Since(start),
		)
	})
}

type requestError struct {
	status int
	detail string
}

func (e *requestError) Error() string {
	return e.detail
}

func badRequest(format string, args ...interface{}) *requestError {
	return &requestError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

// parseListRequest validates a collection request against the endpoint's
// ordering and filter whitelists. Unknown query parameters are rejected so
// misspelled filters fail loudly instead of silently widening the result.
func (s *Server) parseListRequest(r *http.Request, spec OrderingSpec, filters []Filter, extra ...string) (*listRequest, error) {
	query := r.URL.Query()

	allowed := map[string]bool{"cursor": true, "page_size": true, "order_by": true}
	for _, f := range filters {
		allowed[f.Param] = true
	}
	for _, p := range extra {
		allowed[p] = true
	}
	var unknown []string
	for param := range query {
		if !allowed[param] {
			unknown = append(unknown, param)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, badRequest("unknown query parameter %q", strings.Join(unknown, ", "))
	}

	keys, err := spec.Parse(query.Get("order_by"))
	if err != nil {
		return nil, badRequest("%v", err)
	}

	pageSize := s.cfg.DefaultPageSize
	if raw := query.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, badRequest("invalid page_size %q", raw)
		}
		if n > s.cfg.MaxPageSize {
			return nil, badRequest("page_size may not exceed %d", s.cfg.MaxPageSize)
		}
		pageSize = n
	}

	req := &listRequest{keys: keys, pageSize: pageSize}

	if raw := query.Get("cursor"); raw != "" {
		c, err := DecodeCursor(raw)
		if err != nil {
			return nil, badRequest("invalid cursor")
		}
		req.cursor = c
	}

	for _, f := range filters {
		if f.Apply == nil {
			continue
		}
		if v := query.Get(f.Param); v != "" {
			req.filters = append(req.filters, boundFilter{filter: f, value: v})
		}
	}
	return req, nil
}

// selectRows runs a collection query, recording its duration against the
// endpoint tag applied by instrument.
func (s *Server) selectRows(ctx context.Context, q *orm.Query) error {
	stop := metrics.Timer(ctx, metrics.QueryDuration)
	defer stop()
	return q.Select()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debugw("response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

// fail maps an error to its response: request errors keep their status and
// detail, anything else is a logged 500.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var rerr *requestError
	if errors.As(err, &rerr) {
		s.writeError(w, rerr.status, rerr.detail)
		return
	}
	log.Errorw("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "Internal server error.")
}

// Run serves the API until the context is cancelled, then drains in-flight
// requests. Implements schedule.Job.
func (s *Server) Run(ctx context.Context) error {
	s.done = make(chan struct{})
	defer close(s.done)

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           &ochttp.Handler{Handler: s.router},
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("api shutdown", "error", err)
		}
	}()

	log.Infow("api listening", "addr", s.cfg.ListenAddr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) JobType() string {
	return "api"
}

func (s *Server) Params() map[string]interface{} {
	return map[string]interface{}{
		"listen": s.cfg.ListenAddr,
	}
}
