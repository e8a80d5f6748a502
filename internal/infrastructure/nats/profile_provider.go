// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

// Package nats resolves user profiles over NATS request/reply. The user
// directory service owns role and jurisdiction assignments; this layer
// only performs lookups.
package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/internal/domain/port"
	"github.com/aedwatch/device-query-service/pkg/constants"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

// NATSProfileProvider implements the ProfileProvider port for NATS
type NATSProfileProvider struct {
	client NATSClientInterface
}

// FetchProfile implements the ProfileProvider port
func (n *NATSProfileProvider) FetchProfile(ctx context.Context, principal string) (*model.UserProfile, error) {
	if principal == "" {
		return nil, errors.NewValidation("principal is required")
	}

	slog.DebugContext(ctx, "executing NATS profile lookup",
		"subject", constants.ProfileLookupSubject,
		"principal", principal,
	)

	payload, err := json.Marshal(ProfileLookupRequest{Principal: principal})
	if err != nil {
		return nil, errors.NewUnexpected("failed to marshal profile lookup request", err)
	}

	data, err := n.client.Request(ctx, constants.ProfileLookupSubject, payload)
	if err != nil {
		slog.ErrorContext(ctx, "NATS profile lookup failed", "error", err)
		return nil, errors.NewServiceUnavailable("profile lookup failed", err)
	}

	var profile model.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		slog.ErrorContext(ctx, "invalid profile lookup response", "error", err)
		return nil, errors.NewUnexpected("invalid profile lookup response", err)
	}
	if profile.Principal == "" {
		profile.Principal = principal
	}

	slog.DebugContext(ctx, "NATS profile lookup completed",
		"principal", profile.Principal,
		"role", profile.Role,
		"jurisdictions", len(profile.Jurisdictions),
	)

	return &profile, nil
}

// Close gracefully closes the NATS connection
func (n *NATSProfileProvider) Close() error {
	return n.client.Close()
}

// IsReady implements the ProfileProvider port
func (n *NATSProfileProvider) IsReady(ctx context.Context) error {
	if !n.client.IsConnected() {
		return errors.NewServiceUnavailable("NATS connection is not established")
	}
	return nil
}

// NewProfileProvider creates a NATS-backed profile provider
func NewProfileProvider(ctx context.Context, config Config) (port.ProfileProvider, error) {
	slog.InfoContext(ctx, "creating NATS profile provider",
		"url", config.URL,
	)

	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, errors.NewServiceUnavailable("failed to create NATS client", err)
	}

	return &NATSProfileProvider{
		client: client,
	}, nil
}
