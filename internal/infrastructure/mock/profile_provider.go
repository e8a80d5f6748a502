// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"sync"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

// MockProfileProvider is an in-memory implementation of the
// ProfileProvider port. Unknown principals resolve to a national admin
// so local runs work without seeding.
type MockProfileProvider struct {
	mu       sync.RWMutex
	profiles map[string]model.UserProfile
}

// NewMockProfileProvider creates an empty mock profile provider.
func NewMockProfileProvider() *MockProfileProvider {
	return &MockProfileProvider{
		profiles: make(map[string]model.UserProfile),
	}
}

// SetProfile registers a profile for a principal.
func (m *MockProfileProvider) SetProfile(profile model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.Principal] = profile
}

// FetchProfile implements the ProfileProvider port.
func (m *MockProfileProvider) FetchProfile(ctx context.Context, principal string) (*model.UserProfile, error) {
	if principal == "" {
		return nil, errors.NewValidation("principal is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if profile, ok := m.profiles[principal]; ok {
		return &profile, nil
	}

	return &model.UserProfile{
		Principal: principal,
		Role:      model.RoleNationalAdmin,
	}, nil
}

// Close implements the ProfileProvider port.
func (m *MockProfileProvider) Close() error {
	return nil
}

// IsReady implements the ProfileProvider port; the mock is always ready.
func (m *MockProfileProvider) IsReady(ctx context.Context) error {
	return nil
}
