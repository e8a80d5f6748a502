// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSClient wraps the NATS connection used for profile lookups
type NATSClient struct {
	conn    *nats.Conn
	config  Config
	timeout time.Duration
}

// NATSClientInterface defines the interface for NATS operations
// This allows for easy mocking and testing
type NATSClientInterface interface {
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
	IsConnected() bool
	Close() error
}

// Request sends a request on the subject and waits for a single reply
func (c *NATSClient) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {

	if subject == "" || len(payload) == 0 {
		slog.ErrorContext(ctx, "invalid NATS request",
			"subject", subject,
		)
		return nil, fmt.Errorf("invalid NATS request: subject and payload must be set")
	}

	response, errRequest := c.conn.Request(subject, payload, c.timeout)
	if errRequest != nil {
		slog.ErrorContext(ctx, "NATS request failed", "error", errRequest, "subject", subject)
		return nil, fmt.Errorf("NATS request failed: %w", errRequest)
	}

	slog.DebugContext(ctx, "received NATS response",
		"subject", subject,
		"bytes", len(response.Data),
	)

	return response.Data, nil
}

// IsConnected reports whether the underlying connection is established
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close gracefully closes the NATS connection
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// NewClient creates a new NATS client with the given configuration
func NewClient(ctx context.Context, config Config) (*NATSClient, error) {
	slog.InfoContext(ctx, "creating NATS client",
		"url", config.URL,
		"timeout", config.Timeout,
	)

	opts := []nats.Option{
		nats.Name("aedwatch-device-query-service"),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed")
		}),
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to NATS", "error", err)
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	client := &NATSClient{
		conn:    conn,
		config:  config,
		timeout: config.Timeout,
	}

	slog.InfoContext(ctx, "NATS client created successfully",
		"connected_url", conn.ConnectedUrl(),
		"status", conn.Status(),
	)

	return client, nil
}
