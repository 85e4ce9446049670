package commands

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/daemonapi"
	"github.com/gavelhq/gavel/export"
	"github.com/gavelhq/gavel/storage"
)

type exportOpts struct {
	output            string
	tables            cli.StringSlice
	compress          bool
	prefix            string
	uploadURL         string
	uploadToken       string
	uploadConcurrency int
	keepLocal         bool
	progress          bool
}

var exportFlags exportOpts

var ExportCmd = &cli.Command{
	Name:  "export",
	Usage: "Write a bulk csv snapshot of the archive.",
	Description: `Exports every exportable table (or the tables named by --tables) to csv
files in the output directory, one file per table, named by table and by the
snapshot generation timestamp. A manifest listing every file with its row
count and digest is written last, so a snapshot directory without a manifest
is incomplete and must not be consumed.

Each table is dumped in a repeatable-read transaction: rows added after the
snapshot began do not leak in. NULL and the empty string are distinguishable
in the output, so a reload preserves both.

With --upload-url the files are also uploaded to an object store and, unless
--keep-local is set, removed from local disk afterwards.

A snapshot can also be requested from a running daemon with
'gavel export now', which runs it as a scheduler job inside the daemon.
`,
	Flags: flagSet(
		dbConnectFlags,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Directory snapshot files are written to.",
				EnvVars:     []string{"GAVEL_EXPORT_PATH"},
				Value:       "/tmp/gavel-export",
				Destination: &exportFlags.output,
			},
			&cli.StringSliceFlag{
				Name:        "tables",
				Usage:       "Restrict the export to the named tables. May be repeated.",
				Destination: &exportFlags.tables,
			},
			&cli.BoolFlag{
				Name:        "compress",
				Usage:       "Write zstandard-compressed csv files.",
				Value:       true,
				Destination: &exportFlags.compress,
			},
			&cli.StringFlag{
				Name:        "prefix",
				Usage:       "Prepend `PREFIX` to every generated file name.",
				Destination: &exportFlags.prefix,
			},
			&cli.StringFlag{
				Name:        "upload-url",
				Usage:       "Base URL of an object store to upload finished files to. Empty leaves files on local disk.",
				EnvVars:     []string{"GAVEL_EXPORT_UPLOAD_URL"},
				Destination: &exportFlags.uploadURL,
			},
			&cli.StringFlag{
				Name:        "upload-token",
				Usage:       "Bearer token for the object store.",
				EnvVars:     []string{"GAVEL_EXPORT_UPLOAD_TOKEN"},
				Destination: &exportFlags.uploadToken,
			},
			&cli.IntFlag{
				Name:        "upload-concurrency",
				Usage:       "Number of parallel uploads to the object store.",
				Value:       4,
				Destination: &exportFlags.uploadConcurrency,
			},
			&cli.BoolFlag{
				Name:        "keep-local",
				Usage:       "Retain local files after a successful upload.",
				Destination: &exportFlags.keepLocal,
			},
			&cli.BoolFlag{
				Name:        "progress",
				Usage:       "Show a progress bar while exporting.",
				Value:       true,
				Destination: &exportFlags.progress,
			},
		},
	),
	Subcommands: []*cli.Command{
		ExportNowCmd,
	},
	Action: func(cctx *cli.Context) error {
		if err := setupLogging(GavelLogFlags); err != nil {
			return xerrors.Errorf("setup logging: %w", err)
		}

		ctx := ReqContext(cctx)

		outPath, err := homedir.Expand(exportFlags.output)
		if err != nil {
			return xerrors.Errorf("expand output location: %w", err)
		}

		db, err := storage.NewDatabase(ctx, GavelDBFlags.DB, GavelDBFlags.DBPoolSize, GavelDBFlags.Name, GavelDBFlags.DBSchema, false)
		if err != nil {
			return xerrors.Errorf("setup database: %w", err)
		}
		if err := db.Connect(ctx); err != nil {
			return err
		}
		defer db.Close(ctx) //nolint:errcheck

		ecfg := config.ExportConf{
			Path:              outPath,
			Compress:          exportFlags.compress,
			OutputPrefix:      exportFlags.prefix,
			ObjectStoreURL:    exportFlags.uploadURL,
			ObjectStoreToken:  exportFlags.uploadToken,
			UploadConcurrency: exportFlags.uploadConcurrency,
			KeepLocal:         exportFlags.keepLocal,
			Tables:            exportFlags.tables.Value(),
		}

		snapshotter := export.NewSnapshotter(db, ecfg)

		var bar *pb.ProgressBar
		if exportFlags.progress {
			snapshotter.Progress = func(table string, done, total int) {
				if bar == nil {
					bar = pb.StartNew(total)
				}
				bar.Prefix(table)
				bar.Set(done)
			}
		}

		err = snapshotter.Run(ctx)
		if bar != nil {
			bar.Finish()
		}
		return err
	},
}

type exportNowOpts struct {
	name   string
	tables cli.StringSlice
}

var exportNowFlags exportNowOpts

var ExportNowCmd = &cli.Command{
	Name:  "now",
	Usage: "Submit a snapshot export job to a running daemon.",
	Flags: flagSet(
		clientAPIFlagSet,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Usage:       "A name for the job, visible in 'gavel job list'.",
				Destination: &exportNowFlags.name,
			},
			&cli.StringSliceFlag{
				Name:        "tables",
				Usage:       "Restrict the export to the named tables. May be repeated.",
				Destination: &exportNowFlags.tables,
			},
		},
	),
	Action: func(cctx *cli.Context) error {
		ctx := ReqContext(cctx)

		api, closer, err := GetAPI(ctx)
		if err != nil {
			return err
		}
		defer closer()

		id, err := api.Export(ctx, &daemonapi.ExportJobConfig{
			Name:   exportNowFlags.name,
			Tables: exportNowFlags.tables.Value(),
		})
		if err != nil {
			return err
		}

		fmt.Printf("export submitted as job %d\n", id)
		return nil
	},
}
