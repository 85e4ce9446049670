package commands

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/model"
	"github.com/gavelhq/gavel/storage"
)

type migrateOpts struct {
	to     string
	latest bool
	verify bool
}

var migrateFlags migrateOpts

var MigrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Report the current database schema version and the latest available. Use --to or --latest to perform a schema migration.",
	Description: `Reports the schema version recorded in the database and the latest version
known to this binary. With --latest the schema is migrated forward to the
latest version; with --to it is migrated, forward or backward, to the named
major.patch version. Migrations within a major version only ever add to the
schema, so reverting a patch leaves data in place.

Only one migration may run at a time. A session-level advisory lock is taken
for the duration, and the whole migration runs in a single transaction: it
either completes or leaves the schema untouched.
`,
	Flags: flagSet(
		dbConnectFlags,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "to",
				Usage:       "Migrate the schema to `VERSION`, specified as major.patch, for example 1.2.",
				Destination: &migrateFlags.to,
			},
			&cli.BoolFlag{
				Name:        "latest",
				Value:       false,
				Usage:       "Migrate the schema to the latest version.",
				Destination: &migrateFlags.latest,
			},
			&cli.BoolFlag{
				Name:        "verify",
				Value:       false,
				Usage:       "Verify that the schema in the database matches the models compiled into this binary.",
				Destination: &migrateFlags.verify,
			},
		},
	),
	Action: func(cctx *cli.Context) error {
		if err := setupLogging(GavelLogFlags); err != nil {
			return xerrors.Errorf("setup logging: %w", err)
		}

		ctx := cctx.Context

		db, err := storage.NewDatabase(ctx, GavelDBFlags.DB, GavelDBFlags.DBPoolSize, GavelDBFlags.Name, GavelDBFlags.DBSchema, false)
		if err != nil {
			return xerrors.Errorf("setup database: %w", err)
		}

		migrated := false
		if cctx.IsSet("to") {
			target, err := model.ParseVersion(migrateFlags.to)
			if err != nil {
				return xerrors.Errorf("parse target version: %w", err)
			}
			if err := db.MigrateSchemaTo(ctx, target); err != nil {
				return xerrors.Errorf("migrate schema to %s: %w", target, err)
			}
			migrated = true
		} else if migrateFlags.latest {
			if err := db.MigrateSchema(ctx); err != nil {
				return xerrors.Errorf("migrate schema: %w", err)
			}
			migrated = true
		}

		dbVersion, latestVersion, err := db.GetSchemaVersions(ctx)
		if err != nil {
			return xerrors.Errorf("get schema versions: %w", err)
		}

		log.Infof("current database schema is version %s, latest is %s", dbVersion, latestVersion)

		if migrated || migrateFlags.verify {
			if err := db.VerifyCurrentSchema(ctx); err != nil {
				return xerrors.Errorf("verify schema: %w", err)
			}
			log.Infof("database schema is supported by this version of gavel")
		}

		return nil
	},
}
