// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"slices"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

// ResolveAccessScope derives the set of regions and cities a profile is
// permitted to query. It is a pure, total function: every well-formed
// profile yields a scope, and a profile with no regional restriction yields
// an unrestricted one.
//
// The resolver, not the reconciler, establishes the invariant that every
// allowed city belongs to an allowed region: cities only enter the scope
// through an assignment that also contributes its region.
func ResolveAccessScope(profile model.UserProfile) model.UserAccessScope {
	if profile.Role == model.RoleNationalAdmin {
		return model.UserAccessScope{}
	}
	if len(profile.Jurisdictions) == 0 {
		return model.UserAccessScope{}
	}

	regions := model.NewCodeSet()
	cities := model.NewCodeSet()
	cityRestricted := true

	for _, j := range profile.Jurisdictions {
		if j.RegionCode == "" {
			// A region-less assignment grants nothing.
			continue
		}
		regions.Add(j.RegionCode)
		if j.CityCode == "" {
			// An assignment covering a whole region lifts the city
			// restriction: the user may see every city there.
			cityRestricted = false
			continue
		}
		cities.Add(j.CityCode)
	}

	if len(regions) == 0 {
		return model.UserAccessScope{}
	}

	scope := model.UserAccessScope{
		AllowedRegionCodes: regions,
	}
	if cityRestricted {
		scope.AllowedCityCodes = cities
	}
	return scope
}

// ReconcileScope narrows a filter state to fit the access scope. It is pure
// and idempotent: applying it to its own output changes nothing. The second
// return value reports whether anything was stripped, which the session uses
// to force a pagination reset.
//
// Regions and cities are deliberately narrowed differently. An out-of-scope
// region selection is replaced with the full allowed set, not intersected:
// region violations only arise from adversarial or stale input, and
// resetting to "everything the user may see" avoids an empty, misleading
// view. City selections are intersected.
//
// Under a defined scope an empty selection is seeded with the full allowed
// set. The backend receives only the serialized parameters, never the
// principal, so an unconstrained query would return records outside the
// scope.
func ReconcileScope(scope model.UserAccessScope, filters model.DeviceFilters) (model.DeviceFilters, bool) {
	changed := false

	if scope.AllowedRegionCodes != nil {
		outOfScope := slices.ContainsFunc(filters.RegionCodes, func(code string) bool {
			return !scope.AllowedRegionCodes.Has(code)
		})
		empty := len(filters.RegionCodes) == 0 && len(scope.AllowedRegionCodes) > 0
		if outOfScope || empty {
			filters = filters.Clone()
			filters.RegionCodes = scope.AllowedRegionCodes.Sorted()
			changed = true
		}
	}

	if scope.AllowedCityCodes != nil && len(filters.CityCodes) > 0 {
		kept := make([]string, 0, len(filters.CityCodes))
		for _, code := range filters.CityCodes {
			if scope.AllowedCityCodes.Has(code) {
				kept = append(kept, code)
			}
		}
		if len(kept) != len(filters.CityCodes) {
			if !changed {
				filters = filters.Clone()
			}
			if len(kept) == 0 {
				filters.CityCodes = nil
			} else {
				filters.CityCodes = kept
			}
			changed = true
		}
	}

	if scope.AllowedCityCodes != nil && len(filters.CityCodes) == 0 && len(scope.AllowedCityCodes) > 0 {
		if !changed {
			filters = filters.Clone()
		}
		filters.CityCodes = scope.AllowedCityCodes.Sorted()
		changed = true
	}

	return filters, changed
}
