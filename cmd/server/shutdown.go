package main

import (
	"context"

	"go.uber.org/zap"
)

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type stopper interface {
	Stop()
}

// shutdown stops the HTTP server first so no new connections arrive, then
// the chat server. Metrics are only stopped once the chat server's run loop
// has exited, since the loop keeps updating them until then.
func shutdown(ctx context.Context, logger *zap.SugaredLogger, httpSrv, chatSrv shutdowner, metrics stopper) {
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Errorw("HTTP server shutdown", "error", err)
	}

	logger.Info("shutting down chat server...")
	if err := chatSrv.Shutdown(ctx); err != nil {
		logger.Errorw("chat server shutdown", "error", err)
		return
	}

	metrics.Stop()
}
