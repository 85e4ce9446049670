package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/model/auth"
	"github.com/gavelhq/gavel/worker"
)

const (
	readKey  = "test-read-key"
	recapKey = "test-recap-key"
)

type staticTokens map[string]*auth.Token

func (st staticTokens) Lookup(_ context.Context, key string) (*auth.Token, error) {
	return st[key], nil
}

type fakeProducer struct {
	payload  *worker.DocumentPayload
	priority worker.Priority
	err      error
}

func (f *fakeProducer) Document(_ context.Context, p *worker.DocumentPayload, priority worker.Priority) (string, error) {
	f.payload = p
	f.priority = priority
	if f.err != nil {
		return "", f.err
	}
	return "task-1", nil
}

// newTestServer builds a server with a static token source and no database.
// Only code paths that never reach the database may be exercised with it.
func newTestServer(producer worker.Producer) *Server {
	tokens := staticTokens{
		readKey:  {Key: readKey, Name: "reader"},
		recapKey: {Key: recapKey, Name: "uploader", HasRecapPermission: true},
	}
	return NewServer(nil, tokens, producer, nil, config.DefaultConf().API)
}

func doRequest(s *Server, method, target, token string, body io.Reader) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, body)
	if token != "" {
		r.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	return w
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(nil)

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(s, "GET", "/api/rest/v4/courts/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Token", w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Authentication credentials were not provided.", detailOf(t, w))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/rest/v4/courts/", nil)
		r.Header.Set("Authorization", "Bearer "+readKey)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid token header.", detailOf(t, w))
	})

	t.Run("unknown token", func(t *testing.T) {
		w := doRequest(s, "GET", "/api/rest/v4/courts/", "no-such-key", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid token.", detailOf(t, w))
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		// An unknown parameter trips request validation, which runs after
		// authentication and before any query.
		w := doRequest(s, "GET", "/api/rest/v4/courts/?bogus=1", readKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecapPermissionGate(t *testing.T) {
	s := newTestServer(nil)

	for _, slug := range []string{"parties", "attorneys", "recap-query", "recap"} {
		t.Run(slug, func(t *testing.T) {
			method := "GET"
			if slug == "recap" {
				method = "POST"
			}
			w := doRequest(s, method, "/api/rest/v4/"+slug+"/", readKey, strings.NewReader("{}"))
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, config.DefaultConf().API.PermissionDeniedMessage, detailOf(t, w))
		})
	}

	t.Run("recap token passes", func(t *testing.T) {
		w := doRequest(s, "GET", "/api/rest/v4/parties/?bogus=1", recapKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListRequestValidation(t *testing.T) {
	s := newTestServer(nil)

	cases := []struct {
		name   string
		target string
		detail string
	}{
		{"unknown parameter", "/api/rest/v4/courts/?bogus=1", `unknown query parameter "bogus"`},
		{"unknown order key", "/api/rest/v4/courts/?order_by=case_name", ""},
		{"zero page size", "/api/rest/v4/courts/?page_size=0", `invalid page_size "0"`},
		{"non numeric page size", "/api/rest/v4/courts/?page_size=abc", `invalid page_size "abc"`},
		{"page size over the cap", "/api/rest/v4/courts/?page_size=101", "page_size may not exceed 100"},
		{"garbage cursor", "/api/rest/v4/courts/?cursor=%21%21%21", "invalid cursor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(s, "GET", tc.target, readKey, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			if tc.detail != "" {
				assert.Equal(t, tc.detail, detailOf(t, w))
			}
		})
	}

	t.Run("order key whitelist names the choices", func(t *testing.T) {
		w := doRequest(s, "GET", "/api/rest/v4/courts/?order_by=case_name", readKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, detailOf(t, w), "cannot order by")
		assert.Contains(t, detailOf(t, w), "position")
	})
}

func TestOptionsMetadata(t *testing.T) {
	s := newTestServer(nil)

	t.Run("docket entries", func(t *testing.T) {
		w := doRequest(s, "OPTIONS", "/api/rest/v4/docket-entries/", readKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var md endpointMetadata
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
		assert.Equal(t, "Docket Entry List", md.Name)
		assert.Equal(t, "recap_sequence_number,entry_number", md.DefaultOrdering)
		assert.Contains(t, md.OrderingFields, "entry_number")
		assert.Contains(t, md.Filters, "docket")
		assert.Equal(t, []string{"GET", "OPTIONS"}, md.AllowedMethods)
		assert.Equal(t, 20, md.DefaultPageSize)
		assert.Equal(t, 100, md.MaxPageSize)
	})

	t.Run("gated endpoints say so", func(t *testing.T) {
		w := doRequest(s, "OPTIONS", "/api/rest/v4/parties/", readKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var md endpointMetadata
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
		require.NotEmpty(t, md.Notes)
		assert.Contains(t, md.Notes[0], "recap permission")
	})

	t.Run("upload is post only", func(t *testing.T) {
		w := doRequest(s, "OPTIONS", "/api/rest/v4/recap/", readKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var md endpointMetadata
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
		assert.Equal(t, []string{"POST", "OPTIONS"}, md.AllowedMethods)
		assert.Empty(t, md.DefaultOrdering)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(nil)
	w := doRequest(s, "POST", "/api/rest/v4/courts/", readKey, strings.NewReader("{}"))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Allow"))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(nil)

	w := doRequest(s, "GET", "/api/rest/v4/judges/", readKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found.", detailOf(t, w))

	w = doRequest(s, "GET", "/elsewhere", readKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndex(t *testing.T) {
	s := newTestServer(nil)

	w := doRequest(s, "GET", "http://api.test/api/rest/v4/", readKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Version   string            `json:"version"`
		Resources map[string]string `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "http://api.test/api/rest/v4/dockets/", body.Resources["dockets"])
	assert.Contains(t, body.Resources, "recap-query")

	t.Run("requires authentication", func(t *testing.T) {
		w := doRequest(s, "GET", "/api/rest/v4/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLookupValidation(t *testing.T) {
	s := newTestServer(nil)
	base := "/api/rest/v4/recap-query/"

	t.Run("both parameters required", func(t *testing.T) {
		for _, target := range []string{base, base + "?court=cand", base + "?pacer_doc_id__in=035021811436"} {
			w := doRequest(s, "GET", target, recapKey, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "court and pacer_doc_id__in are required", detailOf(t, w))
		}
	})

	t.Run("unknown parameter", func(t *testing.T) {
		w := doRequest(s, "GET", base+"?court=cand&pacer_doc_id__in=1234&format=json", recapKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty identifier list", func(t *testing.T) {
		w := doRequest(s, "GET", base+"?court=cand&pacer_doc_id__in=%2C%2C", recapKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "pacer_doc_id__in carried no identifiers", detailOf(t, w))
	})

	t.Run("identifier cap", func(t *testing.T) {
		ids := make([]string, 251)
		for i := range ids {
			ids[i] = fmt.Sprintf("03502181%04d", i)
		}
		w := doRequest(s, "GET", base+"?court=cand&pacer_doc_id__in="+strings.Join(ids, ","), recapKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "too many identifiers: 251 exceeds the limit of 250", detailOf(t, w))
	})
}

func TestUpload(t *testing.T) {
	valid := `{"court":"cand","pacer_case_id":"12345","pacer_doc_id":"035021811436","document_number":"1"}`

	t.Run("no producer configured", func(t *testing.T) {
		s := newTestServer(nil)
		w := doRequest(s, "POST", "/api/rest/v4/recap/", recapKey, strings.NewReader(valid))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("accepted", func(t *testing.T) {
		producer := &fakeProducer{}
		s := newTestServer(producer)
		w := doRequest(s, "POST", "/api/rest/v4/recap/", recapKey, strings.NewReader(valid))
		require.Equal(t, http.StatusAccepted, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "task-1", body["task_id"])
		assert.Equal(t, "queued", body["status"])

		require.NotNil(t, producer.payload)
		assert.Equal(t, "cand", producer.payload.Court)
		assert.Equal(t, "035021811436", producer.payload.PacerDocID)
		assert.Equal(t, worker.Medium, producer.priority)
	})

	t.Run("explicit priority", func(t *testing.T) {
		producer := &fakeProducer{}
		s := newTestServer(producer)
		body := `{"court":"cand","pacer_case_id":"12345","pacer_doc_id":"035021811436","priority":"high"}`
		w := doRequest(s, "POST", "/api/rest/v4/recap/", recapKey, strings.NewReader(body))
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, worker.High, producer.priority)
	})

	t.Run("unknown priority", func(t *testing.T) {
		s := newTestServer(&fakeProducer{})
		body := `{"court":"cand","pacer_case_id":"12345","pacer_doc_id":"035021811436","priority":"urgent"}`
		w := doRequest(s, "POST", "/api/rest/v4/recap/", recapKey, strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		s := newTestServer(&fakeProducer{})
		w := doRequest(s, "POST", "/api/rest/v4/recap/", recapKey, strings.NewReader(`{"court":"cand"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, detailOf(t, w), "pacer_case_id")
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(&fakeProducer{})
		w := doRequest(s, "POST", "/api/rest/v4/recap/", recapKey, strings.NewReader("{not json"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNestedRestriction(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		want    *int64
		wantErr bool
	}{
		{"absent", "/x/?docket=5", nil, false},
		{"false", "/x/?docket=5&filter_nested_results=false", nil, false},
		{"true with docket", "/x/?docket=5&filter_nested_results=true", int64ptr(5), false},
		{"true without docket", "/x/?filter_nested_results=true", nil, true},
		{"not a bool", "/x/?docket=5&filter_nested_results=yep", nil, true},
		{"docket not an integer", "/x/?docket=soon&filter_nested_results=true", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.target, nil)
			got, err := nestedRestriction(r)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func int64ptr(v int64) *int64 {
	return &v
}
