// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

func TestResolveAccessScope(t *testing.T) {
	tests := []struct {
		name           string
		profile        model.UserProfile
		wantRegions    []string
		wantCities     []string
		wantRegionsNil bool
		wantCitiesNil  bool
	}{
		{
			name: "national admin is unrestricted",
			profile: model.UserProfile{
				Principal: "admin-1",
				Role:      model.RoleNationalAdmin,
				Jurisdictions: []model.JurisdictionAssignment{
					{RegionCode: "서울"},
				},
			},
			wantRegionsNil: true,
			wantCitiesNil:  true,
		},
		{
			name: "no assignments means unrestricted",
			profile: model.UserProfile{
				Principal: "user-1",
				Role:      model.RoleRegionalAdmin,
			},
			wantRegionsNil: true,
			wantCitiesNil:  true,
		},
		{
			name: "regional admin with whole-region assignments",
			profile: model.UserProfile{
				Principal: "user-2",
				Role:      model.RoleRegionalAdmin,
				Jurisdictions: []model.JurisdictionAssignment{
					{RegionCode: "서울"},
					{RegionCode: "부산"},
				},
			},
			wantRegions:   []string{"부산", "서울"},
			wantCitiesNil: true,
		},
		{
			name: "city manager with city assignments",
			profile: model.UserProfile{
				Principal: "user-3",
				Role:      model.RoleCityManager,
				Jurisdictions: []model.JurisdictionAssignment{
					{RegionCode: "서울", CityCode: "종로구"},
					{RegionCode: "서울", CityCode: "중구"},
				},
			},
			wantRegions: []string{"서울"},
			wantCities:  []string{"종로구", "중구"},
		},
		{
			name: "whole-region assignment lifts the city restriction",
			profile: model.UserProfile{
				Principal: "user-4",
				Role:      model.RoleCityManager,
				Jurisdictions: []model.JurisdictionAssignment{
					{RegionCode: "서울", CityCode: "종로구"},
					{RegionCode: "부산"},
				},
			},
			wantRegions:   []string{"부산", "서울"},
			wantCitiesNil: true,
		},
		{
			name: "region-less assignments grant nothing",
			profile: model.UserProfile{
				Principal: "user-5",
				Role:      model.RoleInspector,
				Jurisdictions: []model.JurisdictionAssignment{
					{CityCode: "종로구"},
				},
			},
			wantRegionsNil: true,
			wantCitiesNil:  true,
		},
	}

	assertion := assert.New(t)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scope := ResolveAccessScope(tc.profile)

			if tc.wantRegionsNil {
				assertion.Nil(scope.AllowedRegionCodes)
			} else {
				assertion.Equal(tc.wantRegions, scope.AllowedRegionCodes.Sorted())
			}
			if tc.wantCitiesNil {
				assertion.Nil(scope.AllowedCityCodes)
			} else {
				assertion.ElementsMatch(tc.wantCities, scope.AllowedCityCodes.Sorted())
			}
		})
	}
}

func TestResolveAccessScopeCityRegionInvariant(t *testing.T) {
	// Every allowed city must have entered through an assignment whose
	// region is also allowed.
	assertion := assert.New(t)

	scope := ResolveAccessScope(model.UserProfile{
		Principal: "user-6",
		Role:      model.RoleCityManager,
		Jurisdictions: []model.JurisdictionAssignment{
			{RegionCode: "서울", CityCode: "종로구"},
			{RegionCode: "대구", CityCode: "수성구"},
		},
	})

	assertion.NotNil(scope.AllowedCityCodes)
	assertion.Equal([]string{"대구", "서울"}, scope.AllowedRegionCodes.Sorted())
	assertion.ElementsMatch([]string{"종로구", "수성구"}, scope.AllowedCityCodes.Sorted())
}

func TestReconcileScope(t *testing.T) {
	tests := []struct {
		name        string
		scope       model.UserAccessScope
		filters     model.DeviceFilters
		wantRegions []string
		wantCities  []string
		wantChanged bool
	}{
		{
			name:        "unrestricted scope changes nothing",
			scope:       model.UserAccessScope{},
			filters:     model.DeviceFilters{RegionCodes: []string{"서울", "부산"}},
			wantRegions: []string{"서울", "부산"},
			wantChanged: false,
		},
		{
			name: "out-of-scope region replaces selection with full allowed set",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet("서울"),
			},
			filters:     model.DeviceFilters{RegionCodes: []string{"서울", "부산"}},
			wantRegions: []string{"서울"},
			wantChanged: true,
		},
		{
			name: "in-scope region selection kept as chosen",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet("서울", "부산", "대구"),
			},
			filters:     model.DeviceFilters{RegionCodes: []string{"부산"}},
			wantRegions: []string{"부산"},
			wantChanged: false,
		},
		{
			name: "city selection intersected with allowed cities",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet("서울"),
				AllowedCityCodes:   model.NewCodeSet("종로구", "중구"),
			},
			filters: model.DeviceFilters{
				RegionCodes: []string{"서울"},
				CityCodes:   []string{"종로구", "강남구"},
			},
			wantRegions: []string{"서울"},
			wantCities:  []string{"종로구"},
			wantChanged: true,
		},
		{
			name: "fully out-of-scope cities reset to the allowed set",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet("서울"),
				AllowedCityCodes:   model.NewCodeSet("종로구"),
			},
			filters: model.DeviceFilters{
				RegionCodes: []string{"서울"},
				CityCodes:   []string{"강남구", "서초구"},
			},
			wantRegions: []string{"서울"},
			wantCities:  []string{"종로구"},
			wantChanged: true,
		},
		{
			name: "empty region selection seeded with the allowed set",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet("서울", "부산"),
			},
			filters:     model.DeviceFilters{},
			wantRegions: []string{"부산", "서울"},
			wantChanged: true,
		},
		{
			name: "empty city selection seeded with the allowed cities",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet("서울"),
				AllowedCityCodes:   model.NewCodeSet("중구", "종로구"),
			},
			filters:     model.DeviceFilters{RegionCodes: []string{"서울"}},
			wantRegions: []string{"서울"},
			wantCities:  []string{"종로구", "중구"},
			wantChanged: true,
		},
		{
			name: "empty allowed set forces empty region selection",
			scope: model.UserAccessScope{
				AllowedRegionCodes: model.NewCodeSet(),
			},
			filters:     model.DeviceFilters{RegionCodes: []string{"서울"}},
			wantRegions: []string{},
			wantChanged: true,
		},
	}

	assertion := assert.New(t)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := ReconcileScope(tc.scope, tc.filters)

			assertion.Equal(tc.wantChanged, changed)
			if tc.wantRegions == nil {
				assertion.Nil(got.RegionCodes)
			} else {
				assertion.Equal(tc.wantRegions, got.RegionCodes)
			}
			if tc.wantCities == nil {
				assertion.Nil(got.CityCodes)
			} else {
				assertion.Equal(tc.wantCities, got.CityCodes)
			}

			// Containment: the result always fits the scope.
			for _, code := range got.RegionCodes {
				assertion.True(tc.scope.AllowsRegion(code))
			}
			for _, code := range got.CityCodes {
				assertion.True(tc.scope.AllowsCity(code))
			}

			// Idempotency: re-running against its own output is a no-op.
			again, changedAgain := ReconcileScope(tc.scope, got)
			assertion.False(changedAgain)
			assertion.Equal(got.RegionCodes, again.RegionCodes)
			assertion.Equal(got.CityCodes, again.CityCodes)
		})
	}
}

func TestReconcileScopeDoesNotMutateInput(t *testing.T) {
	assertion := assert.New(t)

	scope := model.UserAccessScope{
		AllowedRegionCodes: model.NewCodeSet("서울"),
	}
	original := model.DeviceFilters{RegionCodes: []string{"서울", "부산"}}

	_, changed := ReconcileScope(scope, original)

	assertion.True(changed)
	assertion.Equal([]string{"서울", "부산"}, original.RegionCodes)
}
