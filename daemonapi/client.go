package daemonapi

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
)

// NewGavelRPC creates a client for the control API served at addr. The addr
// must carry the full URL including the /rpc/v0 path.
func NewGavelRPC(ctx context.Context, addr string, requestHeader http.Header) (GavelAPI, jsonrpc.ClientCloser, error) {
	var res GavelAPIStruct
	closer, err := jsonrpc.NewMergeClient(ctx, addr, "Gavel",
		[]interface{}{
			&res.Internal,
		},
		requestHeader,
	)
	return &res, closer, err
}
