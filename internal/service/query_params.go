// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"strings"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/pkg/constants"
)

// DefaultQueryCriteria returns the query-criteria mode a role falls back to
// when the user has not chosen one. Jurisdiction-bound roles browse by the
// jurisdictions they manage; everyone else browses by address.
func DefaultQueryCriteria(role model.Role) model.QueryCriteria {
	switch role {
	case model.RoleCityManager, model.RoleInspector:
		return model.CriteriaJurisdiction
	}
	return model.CriteriaAddress
}

// BuildDeviceQuery deterministically maps a canonical filter state to the
// parameter set sent to a query backend. It is total: every filter state
// serializes, because each field is validated at its mutation point.
//
// Fields at their all/unset sentinel are omitted, the role default is
// injected for an unset query criteria, and the injected cache epoch
// partitions the backend cache by day.
func BuildDeviceQuery(filters model.DeviceFilters, role model.Role, epoch model.CacheEpoch) model.DeviceQuery {
	query := model.DeviceQuery{
		RegionCodes:    dedupe(filters.RegionCodes),
		CityCodes:      dedupe(filters.CityCodes),
		BatteryExpiry:  filters.BatteryExpiry,
		PadExpiry:      filters.PadExpiry,
		ReplacementDue: filters.ReplacementDue,
		LastInspection: filters.LastInspection,
		Category1:      filters.Category1,
		Category2:      filters.Category2,
		Category3:      filters.Category3,
		Cursor:         filters.Cursor,
		Page:           filters.Page,
		Limit:          filters.Limit,
		CacheEpoch:     epoch,
	}

	if filters.QueryCriteria != nil {
		query.QueryCriteria = *filters.QueryCriteria
	} else {
		query.QueryCriteria = DefaultQueryCriteria(role)
	}

	if filters.Search != nil {
		if trimmed := strings.TrimSpace(*filters.Search); trimmed != "" {
			query.Search = &trimmed
		}
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if !constants.PageSizeAllowed(query.Limit) {
		query.Limit = constants.DefaultPageSize
	}

	return query
}

// dedupe drops duplicates and empty codes, preserving first-seen order.
// Order does not matter for query correctness, but a stable encoding keeps
// the parameter-set key deterministic.
func dedupe(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
