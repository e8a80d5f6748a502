// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"sync"
	"time"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/internal/domain/port"
	"github.com/aedwatch/device-query-service/internal/service"
)

// sessionRegistry hands out one FilterSession per principal. The session
// is the canonical filter state for that user's inventory view; it
// survives across requests until the process restarts.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*service.FilterSession

	searcher port.DeviceSearcher
	profiles port.ProfileProvider
	now      func() time.Time
}

func newSessionRegistry(searcher port.DeviceSearcher, profiles port.ProfileProvider) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*service.FilterSession),
		searcher: searcher,
		profiles: profiles,
		now:      time.Now,
	}
}

// Session returns the principal's session, creating it on first use. The
// daily cache epoch is refreshed on every call so sessions roll over at
// the day boundary without restarting.
func (r *sessionRegistry) Session(ctx context.Context, principal string) (*service.FilterSession, error) {
	epoch := model.DailyEpoch(r.now())

	r.mu.Lock()
	if session, ok := r.sessions[principal]; ok {
		r.mu.Unlock()
		session.SetEpoch(epoch)
		return session, nil
	}
	r.mu.Unlock()

	// Profile lookup happens outside the lock; a concurrent first request
	// for the same principal may race, in which case the first stored
	// session wins.
	profile, err := r.profiles.FetchProfile(ctx, principal)
	if err != nil {
		return nil, err
	}

	session := service.NewFilterSession(service.Config{
		Searcher: r.searcher,
		Role:     profile.Role,
		Scope:    service.ResolveAccessScope(*profile),
		Epoch:    epoch,
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[principal]; ok {
		return existing, nil
	}
	r.sessions[principal] = session
	return session, nil
}

// RefreshScope re-fetches the principal's profile and re-runs scope
// enforcement on the existing session.
func (r *sessionRegistry) RefreshScope(ctx context.Context, principal string) error {
	r.mu.Lock()
	session, ok := r.sessions[principal]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	profile, err := r.profiles.FetchProfile(ctx, principal)
	if err != nil {
		return err
	}
	session.UpdateScope(service.ResolveAccessScope(*profile))
	return nil
}
