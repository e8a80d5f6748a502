// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

// ProfileProvider looks up a principal's directory profile, including the
// jurisdiction assignments the access scope is resolved from.
type ProfileProvider interface {
	// FetchProfile returns the profile for the given principal.
	FetchProfile(ctx context.Context, principal string) (*model.UserProfile, error)

	// Close gracefully closes the provider connection.
	Close() error

	// IsReady checks if the directory is reachable.
	IsReady(ctx context.Context) error
}
