package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/go-pg/pg/v10"
	tablewriter "github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/gavelhq/gavel/model/registry"
	"github.com/gavelhq/gavel/storage"
)

var ModelsCmd = &cli.Command{
	Name:  "models",
	Usage: "Inspect the data models gavel persists.",
	Subcommands: []*cli.Command{
		ModelsListCmd,
		ModelsDescribeCmd,
	},
}

var ModelsListCmd = &cli.Command{
	Name:  "list",
	Usage: "List the exportable tables in bulk snapshot load order.",
	Description: `Bulk snapshot files must be loaded in this order: the dump carries no
referential-integrity enforcement of its own, so referenced rows have to
exist before the rows that reference them.
`,
	Action: func(cctx *cli.Context) error {
		t := tablewriter.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(tablewriter.Row{"Table", "Load Order"})
		for _, tbl := range registry.ModelRegistry.Tables() {
			t.AppendRow(tablewriter.Row{tbl.Name, tbl.Rank})
		}
		t.Render()
		return nil
	},
}

type modelMeta struct {
	TableName   string
	ColumnName  string
	DataType    string
	IsNullable  string
	Description string
}

type tableDesc struct {
	ObjDescription string
}

func getTableDescription(ctx context.Context, db *pg.DB, name, schema string) (string, error) {
	var description tableDesc
	_, err := db.QueryContext(ctx, &description, `
SELECT pg_catalog.obj_description(pgc.oid, 'pg_class')
FROM information_schema.tables t
         INNER JOIN pg_catalog.pg_class pgc
                    ON t.table_name = pgc.relname
WHERE t.table_type='BASE TABLE'
  AND t.table_schema=?
  AND t.table_name=?
`, schema, name)
	if err != nil {
		return "", err
	}
	return description.ObjDescription, nil
}

func getTableMetadata(ctx context.Context, db *pg.DB, table string) ([]modelMeta, error) {
	var meta []modelMeta
	_, err := db.QueryContext(ctx, &meta,
		`
select
    c.table_name,
    c.column_name,
    c.data_type,
    c.is_nullable,
    pgd.description
from pg_catalog.pg_statio_all_tables as st
         inner join pg_catalog.pg_description pgd on (
        pgd.objoid = st.relid
    )
         inner join information_schema.columns c on (
            pgd.objsubid   = c.ordinal_position and
            c.table_schema = st.schemaname and
            c.table_name   = st.relname
    )
where table_name = ?;
`,
		table,
	)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

var ModelsDescribeCmd = &cli.Command{
	Name:  "describe",
	Usage: "Render the table and column documentation recorded in the database as markdown.",
	Flags: flagSet(
		dbConnectFlags,
	),
	Action: func(cctx *cli.Context) error {
		if err := setupLogging(GavelLogFlags); err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}

		ctx := cctx.Context
		db, err := storage.NewDatabase(ctx, GavelDBFlags.DB, GavelDBFlags.DBPoolSize, GavelDBFlags.Name, GavelDBFlags.DBSchema, false)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := db.Connect(ctx); err != nil {
			return err
		}
		defer db.Close(ctx) //nolint:errcheck

		for _, table := range registry.ModelRegistry.Tables() {
			meta, err := getTableMetadata(ctx, db.AsORM(), table.Name)
			if err != nil {
				return err
			}

			tableDescription, err := getTableDescription(ctx, db.AsORM(), table.Name, GavelDBFlags.DBSchema)
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Printf("### %s\n", table.Name)
			fmt.Printf("%s\n", tableDescription)
			fmt.Printf("* Load order: `%d`\n", table.Rank)

			if len(meta) > 0 {
				t := tablewriter.NewWriter()
				t.AppendHeader(tablewriter.Row{"Column", "Type", "Nullable", "Description"})
				for _, m := range meta {
					t.AppendRow(tablewriter.Row{fmt.Sprintf("`%s`", m.ColumnName), fmt.Sprintf("`%s`", m.DataType), m.IsNullable, m.Description})
					t.AppendSeparator()
				}
				fmt.Println()
				fmt.Println(t.RenderMarkdown())
			}
		}
		return nil
	},
}
