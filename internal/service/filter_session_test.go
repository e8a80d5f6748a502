// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/pkg/constants"
)

// stubSearcher is a controllable DeviceSearcher for session tests.
type stubSearcher struct {
	mu      sync.Mutex
	result  *model.DeviceSearchResult
	err     error
	queries []model.DeviceQuery

	// entered is closed when a query arrives; gate, when non-nil, blocks
	// the response until closed. Used to interleave fetches with state
	// changes deterministically.
	entered chan struct{}
	gate    chan struct{}
}

func (s *stubSearcher) QueryDevices(ctx context.Context, query model.DeviceQuery) (*model.DeviceSearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	result, err := s.result, s.err
	entered, gate := s.entered, s.gate
	s.mu.Unlock()

	if entered != nil {
		close(entered)
		s.mu.Lock()
		s.entered = nil
		s.mu.Unlock()
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	out := *result
	return &out, nil
}

func (s *stubSearcher) IsReady(ctx context.Context) error {
	return nil
}

func (s *stubSearcher) setPage(hasMore bool, nextCursor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := model.PageInfo{Page: 1, Limit: constants.DefaultPageSize, HasMore: hasMore}
	if nextCursor != "" {
		page.NextCursor = &nextCursor
	}
	s.result = &model.DeviceSearchResult{PageInfo: page}
}

func newTestSession(searcher *stubSearcher, scope model.UserAccessScope) *FilterSession {
	return NewFilterSession(Config{
		Searcher: searcher,
		Role:     model.RoleRegionalAdmin,
		Scope:    scope,
		Epoch:    model.DailyEpoch(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)),
	})
}

func TestNewFilterSessionFirstPageInvariant(t *testing.T) {
	assertion := assert.New(t)

	session := newTestSession(&stubSearcher{}, model.UserAccessScope{})
	filters := session.Filters()

	assertion.Equal(1, filters.Page)
	assertion.Nil(filters.Cursor)
	assertion.Equal(constants.DefaultPageSize, filters.Limit)
}

func TestNewFilterSessionSeedsScopedDefaults(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(false, "")
	session := newTestSession(searcher, model.UserAccessScope{
		AllowedRegionCodes: model.NewCodeSet("서울"),
		AllowedCityCodes:   model.NewCodeSet("중구", "종로구"),
	})

	// A restricted session never starts with an unconstrained view: the
	// defaults carry the full allowed set, and so does every query.
	filters := session.Filters()
	assertion.Equal([]string{"서울"}, filters.RegionCodes)
	assertion.Equal([]string{"종로구", "중구"}, filters.CityCodes)

	_, err := session.Query(ctx)
	assertion.NoError(err)

	searcher.mu.Lock()
	query := searcher.queries[0]
	searcher.mu.Unlock()
	assertion.Equal([]string{"서울"}, query.RegionCodes)
	assertion.Equal([]string{"종로구", "중구"}, query.CityCodes)

	// A reset lands back on the seeded defaults, not on "everything".
	session.ResetFilters()
	assertion.Equal([]string{"서울"}, session.Filters().RegionCodes)
}

func TestSetFiltersResetsPagination(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(true, "cursor-2")
	session := newTestSession(searcher, model.UserAccessScope{})

	_, err := session.Query(ctx)
	assertion.NoError(err)
	assertion.True(session.NextPage())
	assertion.Equal(2, session.Filters().Page)

	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		window := model.ExpiryExpired
		f.BatteryExpiry = &window
		return f
	})

	filters := session.Filters()
	assertion.Equal(1, filters.Page)
	assertion.Nil(filters.Cursor)
	assertion.Equal(0, session.history.Len())
	assertion.Nil(session.LastPageInfo())
}

func TestPureCursorChangeKeepsHistory(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(true, "cursor-2")
	session := newTestSession(searcher, model.UserAccessScope{})

	_, err := session.Query(ctx)
	assertion.NoError(err)
	assertion.True(session.NextPage())

	// Advancing the page is a pure pagination change; history survives.
	assertion.Equal(1, session.history.Len())
}

func TestNextPageRequiresKnownContinuation(t *testing.T) {
	assertion := assert.New(t)

	searcher := &stubSearcher{}
	session := newTestSession(searcher, model.UserAccessScope{})

	// No response yet: no known next page.
	assertion.False(session.NextPage())
	assertion.Equal(1, session.Filters().Page)
}

func TestNextPageExhausted(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(false, "")
	session := newTestSession(searcher, model.UserAccessScope{})

	_, err := session.Query(ctx)
	assertion.NoError(err)

	before := session.Filters()
	assertion.False(session.NextPage())

	after := session.Filters()
	assertion.Equal(before.Page, after.Page)
	assertion.Equal(before.Cursor, after.Cursor)
	assertion.Equal(0, session.history.Len())
}

func TestNextPageDoubleClickIsSafe(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(true, "cursor-2")
	session := newTestSession(searcher, model.UserAccessScope{})

	_, err := session.Query(ctx)
	assertion.NoError(err)

	// The push happens synchronously on intent; the second click sees the
	// already-advanced state with no known continuation and is a no-op.
	assertion.True(session.NextPage())
	assertion.False(session.NextPage())

	filters := session.Filters()
	assertion.Equal(2, filters.Page)
	assertion.Equal("cursor-2", *filters.Cursor)
	assertion.Equal(1, session.history.Len())
}

func TestBackNavigation(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	session := newTestSession(searcher, model.UserAccessScope{})

	searcher.setPage(true, "cursor-2")
	_, err := session.Query(ctx)
	assertion.NoError(err)
	assertion.True(session.NextPage())

	searcher.setPage(true, "cursor-3")
	_, err = session.Query(ctx)
	assertion.NoError(err)

	// Cursor current immediately before the second NextPage.
	beforeSecond := *session.Filters().Cursor
	assertion.True(session.NextPage())
	assertion.Equal(3, session.Filters().Page)

	assertion.True(session.PrevPage())
	filters := session.Filters()
	assertion.Equal(2, filters.Page)
	assertion.Equal(beforeSecond, *filters.Cursor)

	assertion.True(session.PrevPage())
	filters = session.Filters()
	assertion.Equal(1, filters.Page)
	assertion.Nil(filters.Cursor)

	// First page: no further back.
	assertion.False(session.PrevPage())
}

func TestHistoryBoundUnderLongForwardRun(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	session := newTestSession(searcher, model.UserAccessScope{})

	for i := 2; i < constants.CursorHistoryCap+52; i++ {
		searcher.setPage(true, fmt.Sprintf("cursor-%d", i))
		_, err := session.Query(ctx)
		assertion.NoError(err)
		assertion.True(session.NextPage())
		assertion.LessOrEqual(session.history.Len(), constants.CursorHistoryCap)
	}
}

func TestScopeNarrowingResetsPagination(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(true, "cursor-2")

	session := newTestSession(searcher, model.UserAccessScope{
		AllowedRegionCodes: model.NewCodeSet("서울"),
	})

	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		f.RegionCodes = []string{"서울"}
		return f
	})
	_, err := session.Query(ctx)
	assertion.NoError(err)
	assertion.True(session.NextPage())

	// A deep-linked attempt to widen the selection out of scope is
	// silently narrowed back and pagination starts over.
	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		f.RegionCodes = []string{"서울", "부산"}
		return f
	})

	filters := session.Filters()
	assertion.Equal([]string{"서울"}, filters.RegionCodes)
	assertion.Equal(1, filters.Page)
	assertion.Nil(filters.Cursor)
	assertion.Equal(0, session.history.Len())
}

func TestUpdateScopeReconcilesAppliedFilters(t *testing.T) {
	assertion := assert.New(t)

	searcher := &stubSearcher{}
	session := newTestSession(searcher, model.UserAccessScope{})

	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		f.RegionCodes = []string{"서울", "부산"}
		return f
	})

	// Profile refresh narrows the scope after the filters were applied.
	session.UpdateScope(model.UserAccessScope{
		AllowedRegionCodes: model.NewCodeSet("서울"),
	})

	filters := session.Filters()
	assertion.Equal([]string{"서울"}, filters.RegionCodes)
	assertion.Equal(1, filters.Page)

	// Re-applying the same scope is a no-op.
	session.UpdateScope(model.UserAccessScope{
		AllowedRegionCodes: model.NewCodeSet("서울"),
	})
	assertion.Equal([]string{"서울"}, session.Filters().RegionCodes)
}

func TestQueryStaleResponseDiscarded(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(false, "")
	searcher.entered = make(chan struct{})
	searcher.gate = make(chan struct{})

	session := newTestSession(searcher, model.UserAccessScope{})

	type outcome struct {
		result *model.DeviceSearchResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := session.Query(ctx)
		done <- outcome{result, err}
	}()

	// Wait until the fetch for parameter set A is in flight, then commit
	// parameter set B.
	<-searcher.entered
	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		search := "시청"
		f.Search = &search
		return f
	})
	close(searcher.gate)

	got := <-done
	assertion.Nil(got.result)
	assertion.ErrorIs(got.err, ErrStaleResponse)
	// The stale envelope was not applied: no continuation is known.
	assertion.Nil(session.LastPageInfo())
}

func TestQueryTransportErrorLeavesStateUntouched(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{err: fmt.Errorf("connection refused")}
	session := newTestSession(searcher, model.UserAccessScope{})
	before := session.Filters()

	result, err := session.Query(ctx)
	assertion.Nil(result)
	assertion.Error(err)
	assertion.NotErrorIs(err, ErrStaleResponse)

	after := session.Filters()
	assertion.Equal(before.Page, after.Page)
	assertion.Equal(before.RegionCodes, after.RegionCodes)
}

func TestResetFiltersRestoresDefaults(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(true, "cursor-2")
	session := newTestSession(searcher, model.UserAccessScope{})

	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		window := model.ExpiryWithin30Days
		f.BatteryExpiry = &window
		f.RegionCodes = []string{"서울"}
		f.Limit = 50
		return f
	})
	_, err := session.Query(ctx)
	assertion.NoError(err)
	assertion.True(session.NextPage())

	session.ResetFilters(func(f *model.DeviceFilters) {
		f.RegionCodes = []string{"서울"}
	})

	filters := session.Filters()
	assertion.Equal([]string{"서울"}, filters.RegionCodes)
	assertion.Nil(filters.BatteryExpiry)
	assertion.Equal(constants.DefaultPageSize, filters.Limit)
	assertion.Equal(1, filters.Page)
	assertion.Nil(filters.Cursor)
	assertion.Equal(0, session.history.Len())
}

func TestQuerySendsResolvedParameters(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{}
	searcher.setPage(false, "")
	session := newTestSession(searcher, model.UserAccessScope{
		AllowedRegionCodes: model.NewCodeSet("서울"),
	})

	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		search := "  시청 로비  "
		f.Search = &search
		f.RegionCodes = []string{"서울", "서울"}
		return f
	})

	_, err := session.Query(ctx)
	assertion.NoError(err)

	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	query := searcher.queries[len(searcher.queries)-1]

	assertion.Equal([]string{"서울"}, query.RegionCodes)
	assertion.Equal("시청 로비", *query.Search)
	assertion.Equal(model.CriteriaAddress, query.QueryCriteria)
	assertion.Equal("20260831", string(query.CacheEpoch))
}
