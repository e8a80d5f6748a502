// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package model

// PageInfo is the pagination envelope echoed by a query backend.
type PageInfo struct {
	Page  int
	Limit int
	// HasMore reports whether a further page exists.
	HasMore bool
	// NextCursor is the opaque token for the next page; nil when HasMore
	// is false.
	NextCursor *string
}

// Summary carries aggregate counts for the current filter predicate.
type Summary struct {
	TotalCount int
	// ExpiringSoon counts devices with any consumable expiring within 30
	// days, when the backend computes it.
	ExpiringSoon int
}

// EnforcedFilters distinguishes server-side defaults from caller choices.
type EnforcedFilters struct {
	// AppliedDefaults lists the field names the backend defaulted because
	// the caller omitted them. Surfaced to the UI as informational badges;
	// it must never silently alter client-side state beyond display.
	AppliedDefaults []string
}

// FilterEcho reports which filters the backend saw and enforced.
type FilterEcho struct {
	// Available lists the filter values meaningful under the current scope.
	Available map[string][]string
	// Applied echoes what was actually queried, keyed by field name.
	Applied map[string][]string
	// Enforced reports server-side defaults.
	Enforced EnforcedFilters
}

// DeviceSearchResult is one page of devices plus its envelopes.
type DeviceSearchResult struct {
	Devices  []Device
	Summary  Summary
	PageInfo PageInfo
	Filters  FilterEcho
}
