package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var HelpCmd = &cli.Command{
	Name:      "help",
	Aliases:   []string{"h"},
	Usage:     "Shows a list of commands or help for one command",
	ArgsUsage: "[command]",
	Action: func(c *cli.Context) error {
		args := c.Args()
		if args.Present() {
			return ShowCommandHelp(c, args.First())
		}

		_ = cli.ShowAppHelp(c)
		return nil
	},
}

func ShowCommandHelp(ctx *cli.Context, command string) error {
	if command == "" {
		cli.HelpPrinter(ctx.App.Writer, cli.SubcommandHelpTemplate, ctx.App)
		return nil
	}

	for _, c := range ctx.App.Commands {
		if c.HasName(command) {
			templ := c.CustomHelpTemplate
			if templ == "" {
				templ = cli.CommandHelpTemplate
			}

			cli.HelpPrinter(ctx.App.Writer, templ, c)

			return nil
		}
	}

	for _, t := range helpTopics {
		if t.Name == command {
			fmt.Fprintln(ctx.App.Writer, t.Text)
			return nil
		}
	}

	if ctx.App.CommandNotFound == nil {
		return cli.Exit(fmt.Sprintf("No help topic for '%v'", command), 3)
	}

	ctx.App.CommandNotFound(ctx, command)
	return nil
}

func Metadata() map[string]interface{} {
	return map[string]interface{}{
		"Topics": helpTopics,
	}
}

var AppHelpTemplate = `{{.Name}}{{if .Usage}} - {{.Usage}}{{end}}

Usage:

  {{.HelpName}} [global options] <command> [arguments...]

The commands are:
{{range .VisibleCategories}}{{if .Name}}
   {{.Name}}:{{range .VisibleCommands}}
     {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
   {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about a command.

Additional help topics:
{{range .Metadata.Topics}}
  {{.Name}}{{"\t"}}{{.Description}}{{end}}

Use "{{.HelpName}} help <topic>" for more information about that topic.
`

type helpTopic struct {
	Name        string
	Description string
	Text        string
}

// ----------------------------------------------------------------------------
//                                                            80 characters -->
var helpTopics = []helpTopic{
	{
		Name:        "overview",
		Description: "Overview of gavel",
		Text: `Gavel is a daemon that archives federal court records and serves them over a
REST API. It stores courts, dockets, docket entries, documents, parties and
attorneys in a PostgreSQL database, ingests document uploads through a
redis-backed queue, and publishes monthly bulk snapshots of the archive as
csv files.

The daemon runs three kinds of long-lived jobs, managed by an internal
scheduler:

  api             The public REST API. Serves dockets, docket entries,
                  documents, parties and attorneys with cursor pagination,
                  and a fast document lookup endpoint for identifying
                  documents by their upstream PACER identifiers.

  worker          Ingest workers. Each worker consumes document upload tasks
                  from a redis queue and persists the results in the
                  database. Multiple worker profiles may be configured, each
                  with its own concurrency and queue priorities.

  scheduled-export  The bulk exporter. On a cron schedule (by default at
                  03:00 UTC on the first of each month) it dumps every
                  exportable table to csv, writes a manifest, and optionally
                  uploads the files to an object store.

All tables that record court data are event-mirrored: every insert or update
also appends the row's new image to a history table in the same transaction,
so the archive retains every version of every record it has ever held.

The daemon is controlled through a local JSON-RPC API. The job, log, stop and
wait-api commands, and 'gavel export now', are clients of it. One-shot
operation without a daemon is available for migrations ('gavel migrate'),
snapshots ('gavel export') and token administration ('gavel token').

For details of the database schema and its versioning see 'gavel help schema'.
For the layout of the config file see 'gavel help config'.
`,
	},

	{
		Name:        "config",
		Description: "Configuring the gavel daemon",
		Text: `The daemon reads a TOML config file, by default config.toml inside the
directory named by --repo. 'gavel config new' writes a file with every
setting present but commented out, and 'gavel config show' prints the
effective configuration after merging the file over the defaults.

The file has four sections:

  [Storage]   Named storage backends. Postgresql entries carry a connection
              URL (or the name of an environment variable holding one, so
              credentials can be kept out of the file), a pool size, an
              application name and a schema name. File entries name a
              directory for csv output and are used by tests and ad-hoc
              dumps. The daemon opens the postgres storage named by its
              --storage option, 'db' by default.

  [Queue]     Named redis connections under [Queue.Redis] and worker
              profiles under [Queue.Workers]. Each worker profile names the
              redis connection it consumes from, its concurrency, and the
              relative priorities of the high, medium and low queues. The
              daemon starts one ingest worker job per profile.

  [API]       The REST API: listen address, default and maximum page sizes,
              the cap on identifiers per fast document lookup, the per-token
              rate limit per minute, the redis connection used for rate
              limiting and for enqueueing uploads, and the token cache size.

  [Export]    The bulk snapshot pass: output directory, cron schedule,
              compression, optional object store URL and token, upload
              concurrency, and an optional restriction of the exported
              tables.

Every option in the file has a default; an empty or missing file yields a
working single-database configuration suitable for development.
`,
	},

	{
		Name:        "schema",
		Description: "Database schema versioning and migration",
		Text: `Gavel manages its database schema with versioned migrations. A schema
version has a major and a patch component, for example 1.2. The major
version changes only for incompatible rewrites; patches within a major
version are strictly additive, so data written by an older patch remains
valid under a newer one.

The version the database is at is recorded in the gavel_version table. On
startup the daemon compares it to the versions compiled into the binary and
refuses to run against a schema that is too old or too new. The daemon never
migrates on its own unless started with --allow-schema-migration.

'gavel migrate' reports the database version and the latest known version.
'gavel migrate --latest' migrates forward to the latest; '--to major.patch'
migrates to an exact version, backward if necessary. Reverting a patch
leaves columns and data in place: patches are additive, so the older binary
simply ignores what it does not know.

Migrations run in a single transaction under a session-level advisory lock,
so a failed migration leaves the schema exactly as it was and concurrent
migration attempts from other processes are rejected rather than interleaved.

'gavel migrate --verify' checks that the live schema is compatible with the
models compiled into the binary, column by column, and reports any widened,
narrowed or missing columns. The same check runs automatically after every
migration and on daemon startup.

'gavel models list' prints the exportable tables in the order bulk snapshot
files must be loaded. 'gavel models describe' renders the table and column
documentation recorded in the database as markdown.
`,
	},

	{
		Name:        "export",
		Description: "Bulk csv snapshots",
		Text: `Gavel publishes bulk snapshots of the archive as csv files, one file per
exportable table, named by table and by the snapshot generation timestamp.
The daemon runs the export on the cron schedule in the [Export] config
section; 'gavel export' runs one immediately without a daemon, and
'gavel export now' asks a running daemon to start one as a job.

Each table is dumped in a repeatable-read transaction, so a snapshot is
internally consistent even while ingest continues. Files are quoted such
that NULL and the empty string survive a round trip: a reload distinguishes
a field that was absent from a field that was empty.

After all tables are written the exporter writes a manifest file listing
every file with its row count and digest. The manifest is written last: a
snapshot directory without one is incomplete and must not be consumed.
Consumers should load files in the order given by 'gavel models list', since
the dump carries no referential-integrity enforcement of its own.

Only one export may run at a time; the exporter takes an advisory lock on
the database for the duration, and a scheduled fire that finds the lock held
is skipped rather than queued. Each run is recorded in the export_run table
with its outcome.

With an object store configured the files are uploaded after the manifest is
written and removed from local disk unless KeepLocal is set. Uploads are
parallel and retried with exponential backoff.
`,
	},

	{
		Name:        "monitoring",
		Description: "Monitoring gavel operation",
		Text: `Gavel may be monitored during operation using logfiles, metrics and tracing.
Options should be supplied before any sub command:

  gavel [global options] <command>

Gavel uses the IPFS logging library (https://github.com/ipfs/go-log) to write
application logs. By default logs are written to STDERR in text format. Log
lines are labeled with named systems which indicate the area of function
that produced the log, for example gavel/api or gavel/storage. Each system
may be configured to only emit log messages of a specific level or higher.

A number of environment variables may be used to control the format and
destination of the logs.

  GOLOG_LOG_LEVEL        Set the default log level for all log systems.

  GOLOG_LOG_FMT          Set the output log format. By default logs will be
                         colorized and text format. Use 'json' to specify
                         JSON formatted logs and 'nocolor' to log in text
                         format without colors.

  GOLOG_FILE             Specify the name of the file that logs should be
                         written to. Only used if GOLOG_OUTPUT contains the
                         'file' keyword.

  GOLOG_OUTPUT           Specify whether to output to file, stderr, stdout or
                         a combination. Separate each keyword with a '+', for
                         example: file+stderr

In addition, gavel supports some global options for controlling logging:

  --log-level LEVEL        Set the default log level for all loggers to LEVEL.

  --log-level-named value  Set the log level of specific loggers. The value
                           should be a comma delimited list of log systems
                           and log levels formatted as name:level, for
                           example 'gavel/api:debug,gavel/storage:warn'.

To control logging output while the daemon is running see 'gavel help log'.

During operation gavel exposes metrics and debugging information on port
9991 by default. The address used by this http server can be changed using
the '--prometheus-port' option which expects an IP address and port number.
The address may be omitted to run the server on all interfaces, for
example: ':9991'.

The following paths can be accessed using a standard web browser.

  /metrics       Metrics published in prometheus format: persistence
                 durations and counts, API request latencies by endpoint,
                 export durations and row counts, and, when --redis-addr is
                 supplied, the depths and latencies of the ingest queues.

  /debug/pprof/  Access to standard Go profiling and debugging information:
                 memory allocations, cpu profile and active goroutines dumps.

Gavel can publish function level tracing to a Jaeger compatible collector.
By default tracing is disabled. Use --tracing to enable it,
--jaeger-provider-url to name the collector endpoint,
--jaeger-service-name to set the reported service name and
--jaeger-sampler-param to set the fraction of requests that are sampled.
Each option is also controlled by the corresponding environment variable:
GAVEL_TRACING, JAEGER_PROVIDER_URL, JAEGER_SERVICE_NAME and
JAEGER_SAMPLER_PARAM.
`,
	},
}
