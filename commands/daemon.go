package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/api"
	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/daemonapi"
	"github.com/gavelhq/gavel/export"
	"github.com/gavelhq/gavel/queue"
	"github.com/gavelhq/gavel/schedule"
	"github.com/gavelhq/gavel/storage"
	"github.com/gavelhq/gavel/worker"
)

type daemonOpts struct {
	repo                 string
	config               string
	storage              string
	apiAddr              string
	allowSchemaMigration bool
}

var daemonFlags daemonOpts

var DaemonCmd = &cli.Command{
	Name:  "daemon",
	Usage: "Start a gavel daemon process.",
	Description: `Starts gavel in daemon mode. The daemon connects to the postgres database
named by the --storage option, verifies that the database schema matches the
models compiled into this binary, and then runs its long-lived jobs:

  - the public REST API server
  - one ingest worker per profile configured under [Queue.Workers]
  - the scheduled bulk snapshot exporter

The daemon will not modify the database schema unless started with
--allow-schema-migration. Without it a database that is behind the latest
known schema version must be migrated with 'gavel migrate' before the daemon
will start. See 'gavel help schema' for more information on schema versioning.

A JSON-RPC control API is exposed on the address given by --api. The job,
log, stop, wait-api and 'export now' commands are clients of this API. The
control API is unauthenticated and must only be bound to addresses reachable
by operators.

Jobs are not persisted between restarts of the daemon: the set of jobs is
rebuilt from the config file at startup. Use 'gavel job list' to inspect the
running set.
`,

	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "Specify path where gavel keeps its config.",
			EnvVars:     []string{"GAVEL_REPO"},
			Value:       "~/.gavel",
			Destination: &daemonFlags.repo,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Specify path of config file to use.",
			EnvVars:     []string{"GAVEL_CONFIG"},
			Destination: &daemonFlags.config,
		},
		&cli.StringFlag{
			Name:        "storage",
			Usage:       "Name of the postgresql storage in the config the daemon reads and writes.",
			EnvVars:     []string{"GAVEL_STORAGE"},
			Value:       "db",
			Destination: &daemonFlags.storage,
		},
		&cli.StringFlag{
			Name:        "api",
			Usage:       "Address the control API listens on.",
			EnvVars:     []string{"GAVEL_API"},
			Value:       "127.0.0.1:1234",
			Destination: &daemonFlags.apiAddr,
		},
		&cli.BoolFlag{
			Name:        "allow-schema-migration",
			Usage:       "Migrate the database schema to the latest version before starting.",
			EnvVars:     []string{"GAVEL_ALLOW_SCHEMA_MIGRATION"},
			Value:       false,
			Destination: &daemonFlags.allowSchemaMigration,
		},
	},
	Action: func(cctx *cli.Context) error {
		if err := setupLogging(GavelLogFlags); err != nil {
			return xerrors.Errorf("setup logging: %w", err)
		}

		if err := setupMetrics(GavelMetricFlags); err != nil {
			return xerrors.Errorf("setup metrics: %w", err)
		}

		if err := setupTracing(GavelTracingFlags); err != nil {
			return xerrors.Errorf("setup tracing: %w", err)
		}

		ctx, cancel := context.WithCancel(cctx.Context)
		defer cancel()

		repoDir, err := homedir.Expand(daemonFlags.repo)
		if err != nil {
			return xerrors.Errorf("expand repo location: %w", err)
		}
		if err := os.MkdirAll(repoDir, 0o755); err != nil {
			return xerrors.Errorf("create repo directory: %w", err)
		}

		if daemonFlags.config == "" {
			daemonFlags.config = filepath.Join(repoDir, "config.toml")
		} else {
			daemonFlags.config, err = homedir.Expand(daemonFlags.config)
			if err != nil {
				return xerrors.Errorf("expand config location: %w", err)
			}
		}
		log.Infof("gavel config: %s", daemonFlags.config)

		if err := config.EnsureExists(daemonFlags.config); err != nil {
			return xerrors.Errorf("ensuring config is present at %q: %w", daemonFlags.config, err)
		}

		cfg, err := config.FromFile(daemonFlags.config)
		if err != nil {
			return xerrors.Errorf("read config: %w", err)
		}

		strg, err := storage.NewCatalog(cfg.Storage)
		if err != nil {
			return xerrors.Errorf("open storage catalog: %w", err)
		}

		queues, err := queue.NewCatalog(cfg.Queue)
		if err != nil {
			return xerrors.Errorf("open queue catalog: %w", err)
		}

		db, err := strg.Database(daemonFlags.storage)
		if err != nil {
			return xerrors.Errorf("find storage %q: %w", daemonFlags.storage, err)
		}

		if daemonFlags.allowSchemaMigration {
			if err := db.MigrateSchema(ctx); err != nil {
				return xerrors.Errorf("migrate schema: %w", err)
			}
		}

		if err := db.Connect(ctx); err != nil {
			return xerrors.Errorf("connect storage %q: %w", daemonFlags.storage, err)
		}
		defer func() {
			if err := db.Close(context.Background()); err != nil {
				log.Errorw("close storage", "error", err)
			}
		}()

		scheduler := schedule.NewSchedulerDaemon(ctx)

		tokens, err := api.NewTokenStore(db, cfg.API.TokenCacheSize)
		if err != nil {
			return xerrors.Errorf("build token store: %w", err)
		}

		var producer worker.Producer
		var limiter *redis_rate.Limiter
		if cfg.API.Redis != "" {
			rcfg, err := queues.Config(cfg.API.Redis)
			if err != nil {
				return xerrors.Errorf("api: find redis %q: %w", cfg.API.Redis, err)
			}
			rp := worker.NewProducer(rcfg)
			defer rp.Close() //nolint:errcheck
			producer = rp
			if cfg.API.RateLimitPerMin > 0 {
				limiter = redis_rate.NewLimiter(rcfg.Client())
			}
		}

		scheduler.Submit(&schedule.JobConfig{
			Name:             "api",
			Job:              api.NewServer(db, tokens, producer, limiter, cfg.API),
			RestartOnFailure: true,
			RestartDelay:     30 * time.Second,
		})

		for name, wcfg := range cfg.Queue.Workers {
			rcfg, err := queues.Config(wcfg.Redis)
			if err != nil {
				return xerrors.Errorf("worker %q: find redis %q: %w", name, wcfg.Redis, err)
			}
			scheduler.Submit(&schedule.JobConfig{
				Name:             name,
				Job:              worker.NewDocumentWorker(db, name, rcfg, wcfg),
				RestartOnFailure: true,
				RestartDelay:     30 * time.Second,
			})
		}

		if cfg.Export.Schedule != "" {
			scheduler.Submit(&schedule.JobConfig{
				Name:             "scheduled-export",
				Job:              export.NewScheduledExporter(export.NewSnapshotter(db, cfg.Export), cfg.Export.Schedule),
				RestartOnFailure: true,
				RestartDelay:     time.Minute,
			})
		}

		shutdown := make(chan struct{})
		go func() {
			sigCh := make(chan os.Signal, 2)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Infof("received %s, shutting down", sig)
				shutdown <- struct{}{}
			case <-ctx.Done():
			}
		}()

		gapi := &daemonapi.GavelDaemonAPI{
			Scheduler:    scheduler,
			DB:           db,
			ExportCfg:    cfg.Export,
			ShutdownChan: shutdown,
		}

		return daemonapi.ServeRPC(gapi, daemonFlags.apiAddr, shutdown)
	},
}
