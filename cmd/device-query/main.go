// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"goa.design/clue/health"

	"github.com/aedwatch/device-query-service/internal/domain/port"
	"github.com/aedwatch/device-query-service/internal/infrastructure/auth"
	"github.com/aedwatch/device-query-service/internal/infrastructure/mock"
	natsinfra "github.com/aedwatch/device-query-service/internal/infrastructure/nats"
	"github.com/aedwatch/device-query-service/internal/infrastructure/opensearch"
	"github.com/aedwatch/device-query-service/internal/infrastructure/queryapi"
	logging "github.com/aedwatch/device-query-service/pkg/log"
)

const (
	defaultPort = "8080"
	// gracefulShutdownSeconds should be higher than the NATS client
	// request timeout, and lower than the pod or liveness probe's
	// terminationGracePeriodSeconds.
	gracefulShutdownSeconds = 25

	rateLimitPerSecond = 20
	rateLimitBurst     = 40
)

func init() {
	logging.InitStructureLogConfig()
}

func main() {
	var (
		dbgF = flag.Bool("d", false, "enable debug logging")
		port = flag.String("p", defaultPort, "listen port")
		bind = flag.String("bind", "*", "interface to bind on")
	)
	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	ctx := context.Background()
	slog.InfoContext(ctx, "starting device query service",
		"bind", *bind,
		"http-port", *port,
		"graceful-shutdown-seconds", gracefulShutdownSeconds,
	)

	searcher := deviceSearcherImpl(ctx)
	profiles := profileProviderImpl(ctx)
	jwtAuth := jwtAuthImpl(ctx)

	api := &deviceAPI{
		sessions: newSessionRegistry(searcher, profiles),
		auth:     jwtAuth,
	}

	pingers := []health.Pinger{
		readyPinger{name: "device-searcher", check: searcher.IsReady},
		readyPinger{name: "profile-provider", check: profiles.IsReady},
	}

	errc := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(ctx)

	addr := ":" + *port
	if *bind != "*" {
		addr = *bind + ":" + *port
	}

	handleHTTPServer(ctx, addr, api, pingers, &wg, errc, *dbgF)

	slog.InfoContext(ctx, "received shutdown signal, stopping servers",
		"signal", <-errc,
	)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	go func() {
		slog.InfoContext(shutdownCtx, "closing profile provider")
		if err := profiles.Close(); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to close profile provider", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "graceful shutdown timed out")
	}

	slog.InfoContext(ctx, "exited")
}

// deviceSearcherImpl selects the query backend from the environment.
// QUERY_BACKEND is one of mock, opensearch, or queryapi.
func deviceSearcherImpl(ctx context.Context) port.DeviceSearcher {
	backend := os.Getenv("QUERY_BACKEND")

	switch backend {
	case "opensearch":
		searcher, err := opensearch.NewSearcher(ctx, opensearch.Config{
			URL:   os.Getenv("OPENSEARCH_URL"),
			Index: os.Getenv("OPENSEARCH_INDEX"),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to initialize opensearch searcher", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "using opensearch device searcher")
		return searcher

	case "queryapi":
		config, err := queryapi.NewConfig(
			os.Getenv("QUERY_API_URL"),
			os.Getenv("QUERY_API_KEY"),
			os.Getenv("QUERY_API_TIMEOUT"),
			envInt("QUERY_API_MAX_RETRIES", 3),
			os.Getenv("QUERY_API_RETRY_DELAY"),
		)
		if err != nil {
			slog.ErrorContext(ctx, "failed to initialize query API searcher", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "using HTTP device query API searcher", "url", config.BaseURL)
		return queryapi.NewDeviceSearcher(config)

	default:
		slog.InfoContext(ctx, "using mock device searcher")
		return mock.NewMockDeviceSearcher()
	}
}

// profileProviderImpl selects the profile backend from the environment.
// PROFILE_BACKEND is nats or mock.
func profileProviderImpl(ctx context.Context) port.ProfileProvider {
	if os.Getenv("PROFILE_BACKEND") != "nats" {
		slog.InfoContext(ctx, "using mock profile provider")
		return mock.NewMockProfileProvider()
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	provider, err := natsinfra.NewProfileProvider(ctx, natsinfra.Config{
		URL:           natsURL,
		Timeout:       10 * time.Second,
		MaxReconnect:  5,
		ReconnectWait: 2 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize NATS profile provider", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "using NATS profile provider", "url", natsURL)
	return provider
}

func jwtAuthImpl(ctx context.Context) *auth.JWTAuth {
	jwtAuth, err := auth.NewJWTAuth(auth.JWTAuthConfig{
		JWKSURL:            os.Getenv("JWKS_URL"),
		Audience:           os.Getenv("JWT_AUDIENCE"),
		MockLocalPrincipal: os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize JWT auth", "error", err)
		os.Exit(1)
	}
	return jwtAuth
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
