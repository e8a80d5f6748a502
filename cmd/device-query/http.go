// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"goa.design/clue/debug"
	"goa.design/clue/health"

	"github.com/aedwatch/device-query-service/internal/middleware"
	"github.com/aedwatch/device-query-service/internal/obs"
)

// readyPinger adapts a readiness-checkable dependency to the health
// checker's Pinger interface.
type readyPinger struct {
	name  string
	check func(context.Context) error
}

func (p readyPinger) Name() string                   { return p.name }
func (p readyPinger) Ping(ctx context.Context) error { return p.check(ctx) }

// handleHTTPServer configures and starts the HTTP server. It shuts the
// server down when the context is cancelled.
func handleHTTPServer(ctx context.Context, host string, api *deviceAPI, pingers []health.Pinger, wg *sync.WaitGroup, errc chan error, dbg bool) {

	mux := http.NewServeMux()

	mux.HandleFunc("GET /devices", api.handleDevices)
	mux.HandleFunc("GET /devices/badges", api.handleBadges)
	mux.HandleFunc("POST /devices/filters", api.handleApplyFilters)
	mux.HandleFunc("POST /devices/reset", api.handleResetFilters)
	mux.HandleFunc("POST /devices/refresh-scope", api.handleRefreshScope)

	// Operational endpoints.
	mux.Handle("/metrics", obs.Handler())
	checker := health.NewChecker(pingers...)
	mux.Handle("/readyz", health.Handler(checker))
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if dbg {
		// Mount pprof handlers for memory profiling under /debug/pprof.
		debug.MountPprofHandlers(mux)
		// Mount /debug endpoint to enable or disable debug logs at runtime.
		debug.MountDebugLogEnabler(mux)
	}

	var handler http.Handler = mux
	handler = middleware.RateLimitMiddleware(rateLimitPerSecond, rateLimitBurst)(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	if dbg {
		// Log request and response bodies if debug logs are enabled.
		handler = debug.HTTP()(handler)
	}

	srv := &http.Server{Addr: host, Handler: handler, ReadHeaderTimeout: time.Second * 60}

	(*wg).Add(1)
	go func() {
		defer (*wg).Done()

		go func() {
			slog.InfoContext(ctx, "HTTP server listening", "host", host)
			errc <- srv.ListenAndServe()
		}()

		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down HTTP server", "host", host)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to shutdown HTTP server", "error", err)
		}
	}()
}
