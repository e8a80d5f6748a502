// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"slices"
)

// QueryCriteria selects how free-text search and jurisdiction matching is
// interpreted by the query backend.
type QueryCriteria string

const (
	// CriteriaAddress matches against installation addresses.
	CriteriaAddress QueryCriteria = "address"
	// CriteriaJurisdiction matches against managing jurisdictions.
	CriteriaJurisdiction QueryCriteria = "jurisdiction"
)

// ParseQueryCriteria validates a raw criteria value.
func ParseQueryCriteria(raw string) (QueryCriteria, error) {
	switch QueryCriteria(raw) {
	case CriteriaAddress, CriteriaJurisdiction:
		return QueryCriteria(raw), nil
	}
	return "", fmt.Errorf("unknown query criteria %q", raw)
}

// ExpiryWindow is one enumerated bucket for a date-based filter.
type ExpiryWindow string

const (
	// ExpiryWithin30Days matches dates inside the next 30 days.
	ExpiryWithin30Days ExpiryWindow = "within_30_days"
	// ExpiryWithin90Days matches dates inside the next 90 days.
	ExpiryWithin90Days ExpiryWindow = "within_90_days"
	// ExpiryExpired matches dates already in the past.
	ExpiryExpired ExpiryWindow = "expired"
	// ExpiryNever matches devices with no date on record (e.g. never
	// inspected).
	ExpiryNever ExpiryWindow = "never"
)

// ParseExpiryWindow validates a raw expiry window value.
func ParseExpiryWindow(raw string) (ExpiryWindow, error) {
	switch ExpiryWindow(raw) {
	case ExpiryWithin30Days, ExpiryWithin90Days, ExpiryExpired, ExpiryNever:
		return ExpiryWindow(raw), nil
	}
	return "", fmt.Errorf("unknown expiry window %q", raw)
}

// DeviceFilters is the canonical, applied filter set that drives device
// queries. It is only ever mutated through a FilterSession, which enforces
// scope reconciliation and the pagination invariants:
//
//   - Page == 1 implies Cursor == nil.
//   - Any non-pagination change resets Page to 1 and clears Cursor.
type DeviceFilters struct {
	// RegionCodes and CityCodes are the post-reconciliation jurisdiction
	// selections. Nil means unset (query everything in scope).
	RegionCodes []string
	CityCodes   []string

	// Independent expiry-window filters; nil means not filtered.
	BatteryExpiry  *ExpiryWindow
	PadExpiry      *ExpiryWindow
	ReplacementDue *ExpiryWindow
	LastInspection *ExpiryWindow

	// Hierarchical category filters. Level 2 and 3 are only meaningful
	// given level 1; combination consistency is a UI concern.
	Category1 *string
	Category2 *string
	Category3 *string

	// Search is the free-text query; nil or blank means unset.
	Search *string

	// QueryCriteria overrides the role default when set.
	QueryCriteria *QueryCriteria

	// Pagination.
	Cursor *string
	Page   int
	Limit  int
}

// Clone returns a deep copy, so callers can hold filter snapshots without
// aliasing session-owned state.
func (f DeviceFilters) Clone() DeviceFilters {
	out := f
	out.RegionCodes = slices.Clone(f.RegionCodes)
	out.CityCodes = slices.Clone(f.CityCodes)
	out.BatteryExpiry = clonePtr(f.BatteryExpiry)
	out.PadExpiry = clonePtr(f.PadExpiry)
	out.ReplacementDue = clonePtr(f.ReplacementDue)
	out.LastInspection = clonePtr(f.LastInspection)
	out.Category1 = clonePtr(f.Category1)
	out.Category2 = clonePtr(f.Category2)
	out.Category3 = clonePtr(f.Category3)
	out.Search = clonePtr(f.Search)
	out.QueryCriteria = clonePtr(f.QueryCriteria)
	out.Cursor = clonePtr(f.Cursor)
	return out
}

// EqualNonPagination reports whether f and other agree on every field other
// than Cursor and Page. Limit counts as non-pagination: changing the page
// size invalidates previously-issued cursors.
func (f DeviceFilters) EqualNonPagination(other DeviceFilters) bool {
	return slices.Equal(f.RegionCodes, other.RegionCodes) &&
		slices.Equal(f.CityCodes, other.CityCodes) &&
		ptrEqual(f.BatteryExpiry, other.BatteryExpiry) &&
		ptrEqual(f.PadExpiry, other.PadExpiry) &&
		ptrEqual(f.ReplacementDue, other.ReplacementDue) &&
		ptrEqual(f.LastInspection, other.LastInspection) &&
		ptrEqual(f.Category1, other.Category1) &&
		ptrEqual(f.Category2, other.Category2) &&
		ptrEqual(f.Category3, other.Category3) &&
		ptrEqual(f.Search, other.Search) &&
		ptrEqual(f.QueryCriteria, other.QueryCriteria) &&
		f.Limit == other.Limit
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
