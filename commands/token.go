package commands

import (
	"fmt"
	"os"
	"time"

	tablewriter "github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/model/auth"
	"github.com/gavelhq/gavel/storage"
)

var TokenCmd = &cli.Command{
	Name:  "token",
	Usage: "Manage API tokens.",
	Description: `Administers the tokens the REST API authenticates requests with. Tokens are
rows in the database, so these commands connect directly to postgres rather
than to a daemon.

Revocation takes effect on running API servers as their token cache entries
expire, within about a minute.
`,
	Subcommands: []*cli.Command{
		TokenCreateCmd,
		TokenListCmd,
		TokenRevokeCmd,
	},
}

type tokenOpts struct {
	recap bool
}

var tokenFlags tokenOpts

var TokenCreateCmd = &cli.Command{
	Name:      "create",
	Usage:     "Create an API token and print its key.",
	ArgsUsage: "<name>",
	Flags: flagSet(
		dbConnectFlags,
		[]cli.Flag{
			&cli.BoolFlag{
				Name:        "recap",
				Usage:       "Grant the token access to the party, attorney and document lookup endpoints.",
				Destination: &tokenFlags.recap,
			},
		},
	),
	Action: func(cctx *cli.Context) error {
		if err := setupLogging(GavelLogFlags); err != nil {
			return xerrors.Errorf("setup logging: %w", err)
		}

		if cctx.Args().Len() != 1 {
			return fmt.Errorf("exactly one argument required: a name identifying the holder of the token")
		}

		ctx := cctx.Context

		db, err := storage.NewDatabase(ctx, GavelDBFlags.DB, GavelDBFlags.DBPoolSize, GavelDBFlags.Name, GavelDBFlags.DBSchema, false)
		if err != nil {
			return xerrors.Errorf("setup database: %w", err)
		}
		if err := db.Connect(ctx); err != nil {
			return err
		}
		defer db.Close(ctx) //nolint:errcheck

		key, err := auth.NewKey()
		if err != nil {
			return xerrors.Errorf("generate key: %w", err)
		}

		tok := &auth.Token{
			Key:                key,
			Name:               cctx.Args().First(),
			DateCreated:        time.Now().UTC(),
			HasRecapPermission: tokenFlags.recap,
		}
		if err := db.PersistBatch(ctx, tok); err != nil {
			return xerrors.Errorf("persist token: %w", err)
		}

		fmt.Println(tok.Key)
		return nil
	},
}

var TokenListCmd = &cli.Command{
	Name:  "list",
	Usage: "List API tokens.",
	Flags: flagSet(
		dbConnectFlags,
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
		if err := db.Connect(ctx); err != nil {
			return err
		}
		defer db.Close(ctx) //nolint:errcheck

		var tokens auth.TokenList
		if err := db.AsORM().ModelContext(ctx, &tokens).Order("date_created ASC").Select(); err != nil {
			return xerrors.Errorf("list tokens: %w", err)
		}

		t := tablewriter.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(tablewriter.Row{"Key", "Name", "Created", "Recap", "Revoked"})
		for _, tok := range tokens {
			revoked := ""
			if tok.Revoked {
				revoked = "yes"
				if tok.DateRevoked != nil {
					revoked = tok.DateRevoked.Format("2006-01-02")
				}
			}
			t.AppendRow(tablewriter.Row{tok.Key, tok.Name, tok.DateCreated.Format("2006-01-02"), tok.HasRecapPermission, revoked})
		}
		t.Render()
		return nil
	},
}

var TokenRevokeCmd = &cli.Command{
	Name:      "revoke",
	Usage:     "Revoke an API token.",
	ArgsUsage: "<key>",
	Flags: flagSet(
		dbConnectFlags,
	),
	Action: func(cctx *cli.Context) error {
		if err := setupLogging(GavelLogFlags); err != nil {
			return xerrors.Errorf("setup logging: %w", err)
		}

		if cctx.Args().Len() != 1 {
			return fmt.Errorf("exactly one argument required: the key of the token to revoke")
		}
		key := cctx.Args().First()

		ctx := cctx.Context

		db, err := storage.NewDatabase(ctx, GavelDBFlags.DB, GavelDBFlags.DBPoolSize, GavelDBFlags.Name, GavelDBFlags.DBSchema, false)
		if err != nil {
			return xerrors.Errorf("setup database: %w", err)
		}
		if err := db.Connect(ctx); err != nil {
			return err
		}
		defer db.Close(ctx) //nolint:errcheck

		res, err := db.AsORM().ModelContext(ctx, (*auth.Token)(nil)).
			Set("revoked = TRUE").
			Set("date_revoked = ?", time.Now().UTC()).
			Where("key = ?", key).
			Where("revoked = FALSE").
			Update()
		if err != nil {
			return xerrors.Errorf("revoke token: %w", err)
		}
		if res.RowsAffected() == 0 {
			return xerrors.Errorf("no active token with key %q", key)
		}

		log.Infof("revoked token %s", key)
		return nil
	},
}
