package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tablewriter "github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/gavelhq/gavel/schedule"
)

var JobCmd = &cli.Command{
	Name:  "job",
	Usage: "Manage jobs being run by the daemon.",
	Subcommands: []*cli.Command{
		JobListCmd,
		JobStartCmd,
		JobStopCmd,
	},
}

type jobControlOpts struct {
	ID int
}

var jobControlFlags jobControlOpts

var JobStartCmd = &cli.Command{
	Name:  "start",
	Usage: "Start a stopped job.",
	Flags: flagSet(
		clientAPIFlagSet,
		[]cli.Flag{
			&cli.IntFlag{
				Name:        "id",
				Usage:       "Identifier of the job to start.",
				Required:    true,
				Destination: &jobControlFlags.ID,
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

		return api.JobStart(ctx, schedule.JobID(jobControlFlags.ID))
	},
}

var JobStopCmd = &cli.Command{
	Name:  "stop",
	Usage: "Stop a running job.",
	Flags: flagSet(
		clientAPIFlagSet,
		[]cli.Flag{
			&cli.IntFlag{
				Name:        "id",
				Usage:       "Identifier of the job to stop.",
				Required:    true,
				Destination: &jobControlFlags.ID,
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

		return api.JobStop(ctx, schedule.JobID(jobControlFlags.ID))
	},
}

type jobListOpts struct {
	output string
}

var jobListFlags jobListOpts

var JobListCmd = &cli.Command{
	Name:  "list",
	Usage: "List jobs and their status.",
	Flags: flagSet(
		clientAPIFlagSet,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Usage:       "Output format, one of: table, json.",
				Value:       "table",
				Destination: &jobListFlags.output,
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

		jobs, err := api.JobList(ctx)
		if err != nil {
			return err
		}

		switch jobListFlags.output {
		case "json":
			prettyJobs, err := json.MarshalIndent(jobs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(prettyJobs))
		case "table":
			t := tablewriter.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(tablewriter.Row{"ID", "Name", "Type", "Running", "Error", "Tasks"})
			for _, j := range jobs {
				t.AppendRow(tablewriter.Row{j.ID, j.Name, j.Type, j.Running, j.Error, strings.Join(j.Tasks, ",")})
			}
			t.Render()
		default:
			return fmt.Errorf("unknown output format %q, expected table or json", jobListFlags.output)
		}
		return nil
	},
}
