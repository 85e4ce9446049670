package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// flagSet flattens groups of flags into a single list for a command.
func flagSet(fs ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, f := range fs {
		flags = append(flags, f...)
	}
	return flags
}

// ReqContext returns a context derived from the cli context that is cancelled
// when the process receives an interrupt or termination signal, so that
// long-running commands shut down cleanly on ctrl-c.
func ReqContext(cctx *cli.Context) context.Context {
	tCtx := context.Background()
	if cctx != nil && cctx.Context != nil {
		tCtx = cctx.Context
	}

	ctx, done := context.WithCancel(tCtx)
	sigChan := make(chan os.Signal, 2)
	go func() {
		<-sigChan
		done()
	}()
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	return ctx
}
