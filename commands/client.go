package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/urfave/cli/v2"

	"github.com/gavelhq/gavel/daemonapi"
)

var clientAPIFlags struct {
	apiAddr string
}

var clientAPIFlag = &cli.StringFlag{
	Name:        "api",
	Usage:       "Address of the control API of a gavel daemon, either host:port or a full URL.",
	EnvVars:     []string{"GAVEL_API"},
	Value:       "127.0.0.1:1234",
	Destination: &clientAPIFlags.apiAddr,
}

// clientAPIFlagSet are used by commands that act as clients of a daemon's API
var clientAPIFlagSet = []cli.Flag{
	clientAPIFlag,
}

// GetAPI dials the control API of a running daemon using the address from
// clientAPIFlags.
func GetAPI(ctx context.Context) (daemonapi.GavelAPI, jsonrpc.ClientCloser, error) {
	addr, err := apiURL(clientAPIFlags.apiAddr)
	if err != nil {
		return nil, nil, err
	}

	return daemonapi.NewGavelRPC(ctx, addr, nil)
}

// apiURL normalizes addr into the full URL of the daemon's JSON-RPC endpoint.
// A bare host:port gets the http scheme and the /rpc/v0 path.
func apiURL(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("api address is required")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse api address %q: %w", addr, err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/rpc/v0"
	}
	return u.String(), nil
}
