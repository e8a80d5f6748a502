// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"strings"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

// FilterBadge is one active-filter chip shown above the device table.
type FilterBadge struct {
	Field string
	Label string
	Value string
}

var expiryWindowLabels = map[model.ExpiryWindow]string{
	model.ExpiryWithin30Days: "30일 이내",
	model.ExpiryWithin90Days: "90일 이내",
	model.ExpiryExpired:      "기한 경과",
	model.ExpiryNever:        "기록 없음",
}

// enforcedFieldLabels maps backend field names from the enforced echo to
// display labels. Unknown fields fall back to the raw name.
var enforcedFieldLabels = map[string]string{
	"queryCriteria":        "조회 기준",
	"limit":                "페이지 크기",
	"sort":                 "정렬 순서",
	"regionCodes":          "시·도",
	"cityCodes":            "시·군·구",
	"battery_expiry_date":  "배터리 유효기간",
	"patch_expiry_date":    "패드 유효기간",
	"replacement_date":     "교체 예정일",
	"last_inspection_date": "최근 점검일",
}

// Badges derives the active-filter badges from the applied filter state.
func (s *FilterSession) Badges() []FilterBadge {
	filters := s.Filters()

	var badges []FilterBadge
	if len(filters.RegionCodes) > 0 {
		badges = append(badges, FilterBadge{
			Field: "regionCodes",
			Label: enforcedFieldLabels["regionCodes"],
			Value: strings.Join(filters.RegionCodes, ", "),
		})
	}
	if len(filters.CityCodes) > 0 {
		badges = append(badges, FilterBadge{
			Field: "cityCodes",
			Label: enforcedFieldLabels["cityCodes"],
			Value: strings.Join(filters.CityCodes, ", "),
		})
	}

	windows := []struct {
		field  string
		window *model.ExpiryWindow
	}{
		{"battery_expiry_date", filters.BatteryExpiry},
		{"patch_expiry_date", filters.PadExpiry},
		{"replacement_date", filters.ReplacementDue},
		{"last_inspection_date", filters.LastInspection},
	}
	for _, w := range windows {
		if w.window == nil {
			continue
		}
		badges = append(badges, FilterBadge{
			Field: w.field,
			Label: enforcedFieldLabels[w.field],
			Value: expiryWindowLabels[*w.window],
		})
	}

	categories := []struct {
		field string
		value *string
	}{
		{"category_1", filters.Category1},
		{"category_2", filters.Category2},
		{"category_3", filters.Category3},
	}
	for _, c := range categories {
		if c.value == nil || *c.value == "" {
			continue
		}
		badges = append(badges, FilterBadge{
			Field: c.field,
			Label: "설치 분류",
			Value: *c.value,
		})
	}

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		badges = append(badges, FilterBadge{
			Field: "search",
			Label: "검색어",
			Value: strings.TrimSpace(*filters.Search),
		})
	}

	return badges
}

// EnforcedDefaultLabels returns display labels for the server-side defaults
// reported by the last accepted response. Display-only: enforced defaults
// never alter the client-side filter state.
func (s *FilterSession) EnforcedDefaultLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastEcho == nil {
		return nil
	}

	labels := make([]string, 0, len(s.lastEcho.Enforced.AppliedDefaults))
	for _, field := range s.lastEcho.Enforced.AppliedDefaults {
		if label, ok := enforcedFieldLabels[field]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, field)
	}
	return labels
}
