// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package model

// Role identifies the administrative level of an authenticated user.
type Role string

const (
	// RoleNationalAdmin may query every jurisdiction.
	RoleNationalAdmin Role = "national_admin"
	// RoleRegionalAdmin is restricted to assigned regions.
	RoleRegionalAdmin Role = "regional_admin"
	// RoleCityManager is restricted to assigned cities.
	RoleCityManager Role = "city_manager"
	// RoleInspector is restricted to assigned cities and defaults to
	// jurisdiction-criteria queries.
	RoleInspector Role = "inspector"
)

// JurisdictionAssignment names one region, and optionally one city within
// it, that a profile is responsible for.
type JurisdictionAssignment struct {
	RegionCode string `json:"region_code"`
	CityCode   string `json:"city_code,omitempty"`
}

// UserProfile describes an authenticated user as known to the directory.
type UserProfile struct {
	Principal     string                   `json:"principal"`
	Role          Role                     `json:"role"`
	Jurisdictions []JurisdictionAssignment `json:"jurisdictions,omitempty"`
}
