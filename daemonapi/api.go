package daemonapi

import (
	"context"

	"github.com/gavelhq/gavel/schedule"
)

// GavelAPI is the JSON-RPC control surface of a running daemon. The CLI dials
// it to manage jobs without restarting the process.
type GavelAPI interface {
	// Version reports the build version of the running daemon.
	Version(ctx context.Context) (string, error)

	// Export submits a one-shot bulk snapshot job and returns its ID.
	Export(ctx context.Context, cfg *ExportJobConfig) (schedule.JobID, error)

	JobStart(ctx context.Context, ID schedule.JobID) error
	JobStop(ctx context.Context, ID schedule.JobID) error
	JobList(ctx context.Context) ([]schedule.JobResult, error)

	LogList(ctx context.Context) ([]string, error)
	LogSetLevel(ctx context.Context, subsystem, level string) error
	LogSetLevelRegex(ctx context.Context, regex, level string) error

	// Shutdown stops the daemon process.
	Shutdown(ctx context.Context) error
}

// ExportJobConfig narrows a snapshot submitted over the control API. Empty
// fields fall back to the daemon's export configuration.
type ExportJobConfig struct {
	// Name is the job name shown in listings.
	Name string

	// Tables restricts the snapshot to the named tables.
	Tables []string
}
