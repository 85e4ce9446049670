package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gavelhq/gavel/wait"
)

var WaitApiCmd = &cli.Command{
	Name:  "wait-api",
	Usage: "Wait for the daemon's control API to come online.",
	Flags: flagSet(
		clientAPIFlagSet,
		[]cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Time to wait for the API to become ready",
				Value: 30 * time.Second,
			},
		},
	),
	Action: func(cctx *cli.Context) error {
		ctx := ReqContext(cctx)

		if cctx.Duration("timeout") > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cctx.Duration("timeout"))
			defer cancel()
		}

		err := wait.RepeatUntil(ctx, time.Second, func(ctx context.Context) (bool, error) {
			if err := checkAPI(ctx); err != nil {
				log.Warnf("API not online yet... (%s)", err)
				return false, nil
			}
			return true, nil
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out waiting for api to come online")
		}
		return err
	},
}

func checkAPI(ctx context.Context) error {
	api, closer, err := GetAPI(ctx)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := api.Version(ctx); err != nil {
		return err
	}

	return nil
}
