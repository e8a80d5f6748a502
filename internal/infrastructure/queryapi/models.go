// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package queryapi

import "time"

// deviceEnvelope is the response body of GET /v1/devices.
type deviceEnvelope struct {
	Data       []wireDevice   `json:"data"`
	Summary    wireSummary    `json:"summary"`
	Pagination wirePagination `json:"pagination"`
	Filters    wireFilters    `json:"filters"`
}

type wireDevice struct {
	ID                 string     `json:"id"`
	InstallLocation    string     `json:"installLocation"`
	Address            string     `json:"address"`
	RegionCode         string     `json:"regionCode"`
	CityCode           string     `json:"cityCode"`
	Category1          string     `json:"category1"`
	Category2          string     `json:"category2"`
	Category3          string     `json:"category3"`
	ManagingAgency     string     `json:"managingAgency"`
	BatteryExpiryDate  *time.Time `json:"batteryExpiryDate"`
	PadExpiryDate      *time.Time `json:"padExpiryDate"`
	ReplacementDate    *time.Time `json:"replacementDate"`
	LastInspectionDate *time.Time `json:"lastInspectionDate"`
}

type wireSummary struct {
	TotalCount   int `json:"totalCount"`
	ExpiringSoon int `json:"expiringSoon"`
}

type wirePagination struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor"`
}

type wireFilters struct {
	Available map[string][]string `json:"available"`
	Applied   map[string][]string `json:"applied"`
	Enforced  wireEnforced        `json:"enforced"`
}

type wireEnforced struct {
	AppliedDefaults []string `json:"appliedDefaults"`
}
