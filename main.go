package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/gavelhq/gavel/commands"
	"github.com/gavelhq/gavel/version"
)

var log = logging.Logger("gavel")

func main() {
	if err := logging.SetLogLevel("*", "info"); err != nil {
		log.Fatal(err)
	}

	app := &cli.App{
		Name:    "gavel",
		Usage:   "A daemon that archives federal court records and serves them over a REST API.",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				EnvVars:     []string{"GOLOG_LOG_LEVEL"},
				Value:       "info",
				Usage:       "Set the default log level for all loggers to `LEVEL`",
				Destination: &commands.GavelLogFlags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-level-named",
				EnvVars:     []string{"GAVEL_LOG_LEVEL_NAMED"},
				Value:       "",
				Usage:       "A comma delimited list of named loggers and log levels formatted as name:level, for example 'gavel/api:debug,gavel/storage:warn'",
				Destination: &commands.GavelLogFlags.LogLevelNamed,
			},
			&cli.BoolFlag{
				Name:        "tracing",
				EnvVars:     []string{"GAVEL_TRACING"},
				Value:       false,
				Usage:       "Enable tracing of api, persistence and export calls.",
				Destination: &commands.GavelTracingFlags.Enabled,
			},
			&cli.StringFlag{
				Name:        "jaeger-provider-url",
				EnvVars:     []string{"JAEGER_PROVIDER_URL"},
				Value:       "http://localhost:14268/api/traces",
				Usage:       "URL of the jaeger collector traces are sent to.",
				Destination: &commands.GavelTracingFlags.ProviderURL,
			},
			&cli.StringFlag{
				Name:        "jaeger-service-name",
				EnvVars:     []string{"JAEGER_SERVICE_NAME"},
				Value:       "gavel",
				Usage:       "The service name gavel reports traces under.",
				Destination: &commands.GavelTracingFlags.ServiceName,
			},
			&cli.Float64Flag{
				Name:        "jaeger-sampler-param",
				EnvVars:     []string{"JAEGER_SAMPLER_PARAM"},
				Value:       0.0001,
				Usage:       "The fraction of calls that are sampled.",
				Destination: &commands.GavelTracingFlags.JaegerSamplerParam,
			},
			&cli.StringFlag{
				Name:        "prometheus-port",
				EnvVars:     []string{"GAVEL_PROMETHEUS_PORT"},
				Value:       ":9991",
				Usage:       "Specify the address the prometheus and debug http server binds to.",
				Destination: &commands.GavelMetricFlags.PrometheusPort,
			},
			&cli.StringFlag{
				Name:        "redis-addr",
				EnvVars:     []string{"GAVEL_REDIS_ADDR"},
				Value:       "",
				Usage:       "Redis server address of the ingest queue in \"host:port\" format, used to export asynq queue metrics.",
				Destination: &commands.GavelMetricFlags.RedisAddr,
			},
			&cli.StringFlag{
				Name:        "redis-username",
				EnvVars:     []string{"GAVEL_REDIS_USERNAME"},
				Value:       "",
				Usage:       "Username to authenticate the redis connection used for queue metrics.",
				Destination: &commands.GavelMetricFlags.RedisUsername,
			},
			&cli.StringFlag{
				Name:        "redis-password",
				EnvVars:     []string{"GAVEL_REDIS_PASSWORD"},
				Value:       "",
				Usage:       "Password to authenticate the redis connection used for queue metrics.",
				Destination: &commands.GavelMetricFlags.RedisPassword,
			},
			&cli.IntFlag{
				Name:        "redis-db",
				EnvVars:     []string{"GAVEL_REDIS_DB"},
				Value:       0,
				Usage:       "Redis DB to select for queue metrics.",
				Destination: &commands.GavelMetricFlags.RedisDB,
			},
		},
		Commands: []*cli.Command{
			commands.ConfigCmd,
			commands.DaemonCmd,
			commands.ExportCmd,
			commands.HelpCmd,
			commands.JobCmd,
			commands.LogCmd,
			commands.MigrateCmd,
			commands.ModelsCmd,
			commands.StopCmd,
			commands.TokenCmd,
			commands.WaitApiCmd,
		},
		CustomAppHelpTemplate: commands.AppHelpTemplate,
		Metadata:              commands.Metadata(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
