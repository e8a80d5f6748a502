// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/internal/domain/port"
	"github.com/aedwatch/device-query-service/internal/obs"
	"github.com/aedwatch/device-query-service/pkg/constants"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

// ErrStaleResponse reports that a completed fetch no longer matches the
// canonical filter state. Callers drop it silently; it is never shown to
// users and never applied to state.
var ErrStaleResponse = stderrors.New("stale response discarded")

// Config assembles a FilterSession.
type Config struct {
	// Searcher is the paged query backend.
	Searcher port.DeviceSearcher
	// Role drives filter defaults (page size, query criteria).
	Role model.Role
	// Scope is the session's access scope, resolved once per session.
	Scope model.UserAccessScope
	// Epoch is the daily cache partition key, injected at construction.
	Epoch model.CacheEpoch
}

// FilterOverride adjusts role defaults during a reset, e.g. to preserve a
// previously-chosen default region.
type FilterOverride func(*model.DeviceFilters)

// FilterSession owns the canonical filter state, the scope enforcement
// pass, and the cursor paginator for one active device-inventory view. It
// is the single choke point for mutation: widgets never touch the state
// directly, and every write runs the scope reconciler before it commits,
// so a query is never issued against filters that violate the access
// scope, even transiently.
//
// All transitions are synchronous and atomic under one mutex; only the
// backend fetch itself suspends. A fetch is keyed to the exact serialized
// parameter set that issued it, and its response is accepted only if that
// key is still current on arrival.
type FilterSession struct {
	mu sync.Mutex

	searcher port.DeviceSearcher
	role     model.Role
	scope    model.UserAccessScope
	epoch    model.CacheEpoch

	filters model.DeviceFilters
	history cursorHistory

	// last is the pagination envelope of the most recent accepted
	// response for the current state, nil while none is known.
	last *model.PageInfo
	// lastEcho is the applied/enforced echo of that response.
	lastEcho *model.FilterEcho

	// currentKey identifies the parameter set the view currently wants.
	currentKey string
}

// NewFilterSession creates a session with role-appropriate defaults,
// already reconciled against the scope.
func NewFilterSession(cfg Config) *FilterSession {
	s := &FilterSession{
		searcher: cfg.Searcher,
		role:     cfg.Role,
		scope:    cfg.Scope,
		epoch:    cfg.Epoch,
	}
	s.filters = defaultFilters()
	s.commitLocked(s.filters)
	return s
}

func defaultFilters() model.DeviceFilters {
	return model.DeviceFilters{
		Page:  1,
		Limit: constants.DefaultPageSize,
	}
}

// Filters returns a snapshot of the canonical filter state.
func (s *FilterSession) Filters() model.DeviceFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Scope returns the session's access scope.
func (s *FilterSession) Scope() model.UserAccessScope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Role returns the session's role.
func (s *FilterSession) Role() model.Role {
	return s.role
}

// SetFilters replaces the canonical filters. Any change beyond cursor and
// page resets pagination to the first page and clears the cursor history.
func (s *FilterSession) SetFilters(next model.DeviceFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(next)
}

// UpdateFilters applies fn to a snapshot of the current filters and commits
// the result, in one atomic step.
func (s *FilterSession) UpdateFilters(fn func(model.DeviceFilters) model.DeviceFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(fn(s.filters.Clone()))
}

// ResetFilters restores role-appropriate defaults, optionally adjusted by
// overrides, and clears the cursor history.
func (s *FilterSession) ResetFilters(overrides ...FilterOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := defaultFilters()
	for _, override := range overrides {
		if override != nil {
			override(&next)
		}
	}
	s.commitLocked(next)
	// A reset always starts pagination over, even if the defaults happen
	// to equal the previous filters.
	s.resetPaginationLocked()
}

// UpdateScope replaces the access scope (e.g. after a profile refresh) and
// re-runs the enforcement pass against the current filters.
func (s *FilterSession) UpdateScope(scope model.UserAccessScope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
	s.commitLocked(s.filters)
}

// SetEpoch swaps the cache partition key, e.g. at the day boundary.
func (s *FilterSession) SetEpoch(epoch model.CacheEpoch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch
	s.currentKey = BuildDeviceQuery(s.filters, s.role, s.epoch).Key()
}

// NextPage advances to the next page if one is known to exist. It reports
// whether it advanced. The push onto the cursor history happens here,
// synchronously on intent, using the cursor known at call time; a second
// call before the next response arrives observes the already-advanced
// state and is a no-op.
func (s *FilterSession) NextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil || !s.last.HasMore || s.last.NextCursor == nil {
		return false
	}

	current := ""
	if s.filters.Cursor != nil {
		current = *s.filters.Cursor
	}
	s.history.Push(current)

	next := *s.last.NextCursor
	s.filters.Cursor = &next
	s.filters.Page++
	// The envelope described the page we just left; the new page's
	// continuation is unknown until its response arrives.
	s.last = nil
	s.currentKey = BuildDeviceQuery(s.filters, s.role, s.epoch).Key()
	return true
}

// PrevPage steps back to the previous page using the cursor history. It is
// a no-op on the first page or with an empty history.
func (s *FilterSession) PrevPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filters.Page <= 1 {
		return false
	}
	cursor, ok := s.history.Pop()
	if !ok {
		return false
	}

	s.filters.Page--
	if cursor == "" {
		s.filters.Cursor = nil
	} else {
		s.filters.Cursor = &cursor
	}
	s.last = nil
	s.currentKey = BuildDeviceQuery(s.filters, s.role, s.epoch).Key()
	return true
}

// Query issues the current parameter set against the backend. If the
// filter state changed while the fetch was in flight the response is
// discarded and ErrStaleResponse returned. Transport failures surface as a
// retryable ServiceUnavailable and never mutate filter or pagination
// state.
func (s *FilterSession) Query(ctx context.Context) (*model.DeviceSearchResult, error) {
	s.mu.Lock()
	query := BuildDeviceQuery(s.filters, s.role, s.epoch)
	key := query.Key()
	s.currentKey = key
	searcher := s.searcher
	s.mu.Unlock()

	start := time.Now()
	result, err := searcher.QueryDevices(ctx, query)
	obs.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		obs.QueriesTotal.WithLabelValues("session", "error").Inc()
		return nil, errors.NewServiceUnavailable("device query failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentKey != key {
		obs.StaleResponsesDiscarded.Inc()
		slog.DebugContext(ctx, "discarding stale query response",
			"stale_key", key,
		)
		return nil, ErrStaleResponse
	}

	obs.QueriesTotal.WithLabelValues("session", "ok").Inc()
	envelope := result.PageInfo
	s.last = &envelope
	echo := result.Filters
	s.lastEcho = &echo
	return result, nil
}

// LastPageInfo returns the pagination envelope of the most recent accepted
// response, or nil if none is current.
func (s *FilterSession) LastPageInfo() *model.PageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	envelope := *s.last
	return &envelope
}

// commitLocked is the single enforcement path every mutation funnels
// through: reconcile against the scope, then reset pagination if anything
// beyond cursor/page changed. Running it against its own output is a
// no-op.
func (s *FilterSession) commitLocked(next model.DeviceFilters) {
	next, corrected := ReconcileScope(s.scope, next)
	if corrected {
		obs.ScopeCorrections.Inc()
	}

	if !next.EqualNonPagination(s.filters) || corrected {
		next.Page = 1
		next.Cursor = nil
		s.resetPaginationLocked()
	}

	// First page never carries a cursor, and a page past the first is
	// meaningless without one.
	if next.Page < 1 {
		next.Page = 1
	}
	if next.Page == 1 {
		next.Cursor = nil
	} else if next.Cursor == nil {
		next.Page = 1
	}

	s.filters = next
	s.currentKey = BuildDeviceQuery(s.filters, s.role, s.epoch).Key()
}

func (s *FilterSession) resetPaginationLocked() {
	s.history.Clear()
	s.last = nil
	s.lastEcho = nil
}
