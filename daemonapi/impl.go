package daemonapi

import (
	"context"

	logging "github.com/ipfs/go-log/v2"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/export"
	"github.com/gavelhq/gavel/schedule"
	"github.com/gavelhq/gavel/storage"
	"github.com/gavelhq/gavel/version"
)

var log = logging.Logger("gavel/daemonapi")

var _ GavelAPI = (*GavelDaemonAPI)(nil)

// GavelDaemonAPI implements the control API inside the daemon process.
type GavelDaemonAPI struct {
	Scheduler *schedule.Scheduler
	DB        *storage.Database
	ExportCfg config.ExportConf

	ShutdownChan chan struct{}
}

func (m *GavelDaemonAPI) Version(_ context.Context) (string, error) {
	return version.String(), nil
}

func (m *GavelDaemonAPI) Export(_ context.Context, cfg *ExportJobConfig) (schedule.JobID, error) {
	if cfg == nil {
		cfg = &ExportJobConfig{}
	}

	ecfg := m.ExportCfg
	if len(cfg.Tables) > 0 {
		ecfg.Tables = cfg.Tables
	}

	name := cfg.Name
	if name == "" {
		name = "export"
	}

	id := m.Scheduler.Submit(&schedule.JobConfig{
		Name:  name,
		Tasks: ecfg.Tables,
		Job:   export.NewSnapshotter(m.DB, ecfg),
	})

	log.Infow("submitted export job", "id", id, "name", name)
	return id, nil
}

func (m *GavelDaemonAPI) JobStart(_ context.Context, ID schedule.JobID) error {
	if err := m.Scheduler.StartJob(ID); err != nil {
		return err
	}
	return nil
}

func (m *GavelDaemonAPI) JobStop(_ context.Context, ID schedule.JobID) error {
	if err := m.Scheduler.StopJob(ID); err != nil {
		return err
	}
	return nil
}

func (m *GavelDaemonAPI) JobList(_ context.Context) ([]schedule.JobResult, error) {
	return m.Scheduler.Jobs(), nil
}

func (m *GavelDaemonAPI) LogList(ctx context.Context) ([]string, error) {
	return logging.GetSubsystems(), nil
}

func (m *GavelDaemonAPI) LogSetLevel(ctx context.Context, subsystem, level string) error {
	return logging.SetLogLevel(subsystem, level)
}

func (m *GavelDaemonAPI) LogSetLevelRegex(ctx context.Context, regex, level string) error {
	return logging.SetLogLevelRegex(regex, level)
}

func (m *GavelDaemonAPI) Shutdown(ctx context.Context) error {
	m.ShutdownChan <- struct{}{}
	return nil
}
