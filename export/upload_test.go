package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/config"
)

func TestUploaderPutsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "search_court-2023-04-01.csv"), []byte("id\n\"cand\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema-2023-04-01.sql"), []byte("-- ddl\n"), 0o644))

	var mu sync.Mutex
	received := map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mu.Lock()
		received[r.URL.Path] = string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	u := NewUploader(config.ExportConf{
		ObjectStoreURL:    srv.URL + "/bulk",
		ObjectStoreToken:  "sekrit",
		UploadConcurrency: 2,
	})

	err := u.UploadAll(context.Background(), dir, []string{"search_court-2023-04-01.csv", "schema-2023-04-01.sql"})
	require.NoError(t, err)

	assert.Equal(t, "id\n\"cand\"\n", received["/bulk/search_court-2023-04-01.csv"])
	assert.Equal(t, "-- ddl\n", received["/bulk/schema-2023-04-01.sql"])
}

func TestUploaderRetriesServerErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest-2023-04-01.json"), []byte("{}\n"), 0o644))

	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewUploader(config.ExportConf{ObjectStoreURL: srv.URL})

	err := u.Upload(context.Background(), filepath.Join(dir, "manifest-2023-04-01.json"), "manifest-2023-04-01.json")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestUploaderDoesNotRetryRejections(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.csv"), []byte("x\n"), 0o644))

	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	u := NewUploader(config.ExportConf{ObjectStoreURL: srv.URL})

	err := u.Upload(context.Background(), filepath.Join(dir, "f.csv"), "f.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.Equal(t, 1, attempts)
}
