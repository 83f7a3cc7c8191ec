package utils

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = defaultReadTimeout
	defaultShutdownTimeout = 30 * time.Second
)

// GraceServer serves handler on addr until SIGINT/SIGTERM, then drains
// in-flight requests before returning.
func GraceServer(addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, NewServer(addr, handler))
}

// NewServer creates an http.Server with the default timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
}

// Serve runs srv until ctx is cancelled and then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	Sugar.Info("shutdown signal received, draining HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
		return err
	}
	Sugar.Info("HTTP server shutdown success")
	return <-errCh
}
