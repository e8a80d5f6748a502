// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package model

import "sort"

// CodeSet is a set of region or city codes. A nil CodeSet means
// "unrestricted"; a non-nil empty CodeSet means "nothing allowed".
// The two are deliberately distinct.
type CodeSet map[string]struct{}

// NewCodeSet builds a non-nil CodeSet from the given codes.
func NewCodeSet(codes ...string) CodeSet {
	set := make(CodeSet, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// Has reports whether code is a member. A nil set contains nothing; use
// UserAccessScope.AllowsRegion/AllowsCity for the unrestricted semantics.
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Add inserts code into the set.
func (s CodeSet) Add(code string) {
	s[code] = struct{}{}
}

// Sorted returns the members in lexicographic order.
func (s CodeSet) Sorted() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// UserAccessScope is the set of regions and cities a user may query.
// It is computed once per authenticated session and treated as immutable.
type UserAccessScope struct {
	// AllowedRegionCodes restricts the queryable regions. Nil means all
	// regions are allowed.
	AllowedRegionCodes CodeSet

	// AllowedCityCodes restricts the queryable cities within the allowed
	// regions. Nil means all cities are allowed.
	AllowedCityCodes CodeSet
}

// Unrestricted reports whether the scope places no restriction at all.
func (s UserAccessScope) Unrestricted() bool {
	return s.AllowedRegionCodes == nil && s.AllowedCityCodes == nil
}

// AllowsRegion reports whether the scope permits querying the given region.
func (s UserAccessScope) AllowsRegion(code string) bool {
	if s.AllowedRegionCodes == nil {
		return true
	}
	return s.AllowedRegionCodes.Has(code)
}

// AllowsCity reports whether the scope permits querying the given city.
func (s UserAccessScope) AllowsCity(code string) bool {
	if s.AllowedCityCodes == nil {
		return true
	}
	return s.AllowedCityCodes.Has(code)
}
