package daemonapi

import (
	"context"

	"github.com/gavelhq/gavel/schedule"
)

var _ GavelAPI = (*GavelAPIStruct)(nil)

// GavelAPIStruct is the client-side proxy for GavelAPI. The jsonrpc client
// fills Internal with stubs that perform the remote calls.
type GavelAPIStruct struct {
	Internal struct {
		Version func(context.Context) (string, error) `perm:"read"`

		Export func(context.Context, *ExportJobConfig) (schedule.JobID, error) `perm:"read"`

		JobStart func(ctx context.Context, ID schedule.JobID) error      `perm:"read"`
		JobStop  func(ctx context.Context, ID schedule.JobID) error      `perm:"read"`
		JobList  func(ctx context.Context) ([]schedule.JobResult, error) `perm:"read"`

		LogList          func(context.Context) ([]string, error)     `perm:"read"`
		LogSetLevel      func(context.Context, string, string) error `perm:"read"`
		LogSetLevelRegex func(context.Context, string, string) error `perm:"read"`

		Shutdown func(context.Context) error `perm:"read"`
	}
}

func (s *GavelAPIStruct) Version(ctx context.Context) (string, error) {
	return s.Internal.Version(ctx)
}

func (s *GavelAPIStruct) Export(ctx context.Context, cfg *ExportJobConfig) (schedule.JobID, error) {
	return s.Internal.Export(ctx, cfg)
}

func (s *GavelAPIStruct) JobStart(ctx context.Context, ID schedule.JobID) error {
	return s.Internal.JobStart(ctx, ID)
}

func (s *GavelAPIStruct) JobStop(ctx context.Context, ID schedule.JobID) error {
	return s.Internal.JobStop(ctx, ID)
}

func (s *GavelAPIStruct) JobList(ctx context.Context) ([]schedule.JobResult, error) {
	return s.Internal.JobList(ctx)
}

func (s *GavelAPIStruct) LogList(ctx context.Context) ([]string, error) {
	return s.Internal.LogList(ctx)
}

func (s *GavelAPIStruct) LogSetLevel(ctx context.Context, subsystem, level string) error {
	return s.Internal.LogSetLevel(ctx, subsystem, level)
}

func (s *GavelAPIStruct) LogSetLevelRegex(ctx context.Context, regex, level string) error {
	return s.Internal.LogSetLevelRegex(ctx, regex, level)
}

func (s *GavelAPIStruct) Shutdown(ctx context.Context) error {
	return s.Internal.Shutdown(ctx)
}
