// Package server exposes the REST and WebSocket surface over the chat
// services, with production timeouts and graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// NewHTTPServer wraps the handler with timeouts suited for long-lived
// WebSocket upgrades alongside short REST calls.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve blocks until the server stops. A clean shutdown is not an error.
func Serve(server *http.Server, log *slog.Logger) error {
	log.Info("HTTP server listening", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by shutdownTimeout.
func Shutdown(server *http.Server, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
		return
	}
	log.Info("HTTP server stopped")
}
