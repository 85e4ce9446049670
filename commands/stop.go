package commands

import (
	"github.com/urfave/cli/v2"
)

var StopCmd = &cli.Command{
	Name:  "stop",
	Usage: "Stop a running gavel daemon.",
	Flags: flagSet(
		clientAPIFlagSet,
	),
	Action: func(cctx *cli.Context) error {
		ctx := ReqContext(cctx)

		api, closer, err := GetAPI(ctx)
		if err != nil {
			return err
		}
		defer closer()

		return api.Shutdown(ctx)
	},
}
