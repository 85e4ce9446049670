package daemonapi_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/daemonapi"
	"github.com/gavelhq/gavel/schedule"
	"github.com/gavelhq/gavel/version"
)

// TestControlAPI drives the daemon control surface through a real JSON-RPC
// client and server pair. Jobs that would need the database are expected to
// fail once started; only submission and listing are asserted here.
func TestControlAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	impl := &daemonapi.GavelDaemonAPI{
		Scheduler:    schedule.NewSchedulerDaemon(ctx),
		ExportCfg:    config.DefaultConf().Export,
		ShutdownChan: make(chan struct{}, 1),
	}

	ts := httptest.NewServer(daemonapi.Handler(impl))
	defer ts.Close()

	api, closer, err := daemonapi.NewGavelRPC(ctx, ts.URL+"/rpc/v0", nil)
	require.NoError(t, err)
	defer closer()

	t.Run("version", func(t *testing.T) {
		v, err := api.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, version.String(), v)
	})

	t.Run("job control rejects unknown ids", func(t *testing.T) {
		err := api.JobStart(ctx, schedule.JobID(999))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")

		err = api.JobStop(ctx, schedule.JobID(999))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("export submits a job", func(t *testing.T) {
		id, err := api.Export(ctx, &daemonapi.ExportJobConfig{
			Name:   "manual-export",
			Tables: []string{"search_court"},
		})
		require.NoError(t, err)
		assert.NotEqual(t, schedule.InvalidJobID, id)

		assert.Eventually(t, func() bool {
			jobs, err := api.JobList(ctx)
			if err != nil {
				return false
			}
			for _, j := range jobs {
				if j.ID == id && j.Name == "manual-export" {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("log levels", func(t *testing.T) {
		systems, err := api.LogList(ctx)
		require.NoError(t, err)
		assert.Contains(t, systems, "gavel/daemonapi")

		require.NoError(t, api.LogSetLevel(ctx, "gavel/daemonapi", "debug"))
		assert.Error(t, api.LogSetLevel(ctx, "gavel/daemonapi", "nope"))
	})

	t.Run("shutdown signals the daemon", func(t *testing.T) {
		require.NoError(t, api.Shutdown(ctx))
		select {
		case <-impl.ShutdownChan:
		default:
			t.Fatal("shutdown channel not signalled")
		}
	})
}
