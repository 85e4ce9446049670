package daemonapi

import (
	"context"
	"net/http"
	"time"

	"github.com/filecoin-project/go-jsonrpc"
	"golang.org/x/xerrors"
)

// Handler returns the http handler for the control API, mounted at /rpc/v0.
func Handler(a GavelAPI) http.Handler {
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("Gavel", a)

	mux := http.NewServeMux()
	mux.Handle("/rpc/v0", rpcServer)
	return mux
}

// ServeRPC serves the control API over JSON-RPC at /rpc/v0 on addr. It blocks
// until the shutdown channel receives a value, then drains in-flight requests
// before returning.
func ServeRPC(a GavelAPI, addr string, shutdown <-chan struct{}) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: Handler(a),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	log.Infow("control api listening", "addr", addr)

	select {
	case err := <-serveErr:
		return xerrors.Errorf("control api: %w", err)
	case <-shutdown:
	}

	log.Info("control api shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return xerrors.Errorf("control api shutdown: %w", err)
	}
	return nil
}
