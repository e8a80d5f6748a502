// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

// MockDeviceSearcher is an in-memory implementation of the DeviceSearcher
// port with full filter and cursor-pagination semantics. It backs local
// runs and tests; the clean architecture makes it a drop-in for the real
// backends.
type MockDeviceSearcher struct {
	devices []model.Device
	// now supplies the reference time for expiry-window matching.
	now func() time.Time
}

// NewMockDeviceSearcher creates a mock searcher with a small sample
// inventory.
func NewMockDeviceSearcher() *MockDeviceSearcher {
	base := time.Now()
	return &MockDeviceSearcher{
		now:     time.Now,
		devices: sampleDevices(base),
	}
}

// NewMockDeviceSearcherAt creates an empty mock searcher whose expiry
// windows are evaluated against the fixed reference time.
func NewMockDeviceSearcherAt(now time.Time) *MockDeviceSearcher {
	return &MockDeviceSearcher{
		now: func() time.Time { return now },
	}
}

// AddDevice registers a device in the inventory.
func (m *MockDeviceSearcher) AddDevice(device model.Device) {
	m.devices = append(m.devices, device)
}

// ClearDevices empties the inventory.
func (m *MockDeviceSearcher) ClearDevices() {
	m.devices = nil
}

// QueryDevices implements the DeviceSearcher port.
func (m *MockDeviceSearcher) QueryDevices(ctx context.Context, query model.DeviceQuery) (*model.DeviceSearchResult, error) {
	slog.DebugContext(ctx, "mock device query",
		"regions", query.RegionCodes,
		"cities", query.CityCodes,
		"criteria", query.QueryCriteria,
	)

	matched := make([]model.Device, 0, len(m.devices))
	for _, device := range m.devices {
		if m.matches(device, query) {
			matched = append(matched, device)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	start := 0
	if query.Cursor != nil {
		afterID, err := decodeCursor(*query.Cursor)
		if err != nil {
			return nil, err
		}
		start = sort.Search(len(matched), func(i int) bool {
			return matched[i].ID > afterID
		})
	}

	limit := query.Limit
	end := start + limit
	hasMore := end < len(matched)
	if end > len(matched) {
		end = len(matched)
	}
	page := matched[start:end]

	result := &model.DeviceSearchResult{
		Devices: page,
		Summary: model.Summary{
			TotalCount:   len(matched),
			ExpiringSoon: m.countExpiringSoon(matched),
		},
		PageInfo: model.PageInfo{
			Page:    query.Page,
			Limit:   limit,
			HasMore: hasMore,
		},
		Filters: m.filterEcho(query),
	}
	if hasMore && len(page) > 0 {
		token := encodeCursor(page[len(page)-1].ID)
		result.PageInfo.NextCursor = &token
	}

	return result, nil
}

// IsReady implements the DeviceSearcher port; the mock is always ready.
func (m *MockDeviceSearcher) IsReady(ctx context.Context) error {
	return nil
}

func (m *MockDeviceSearcher) matches(device model.Device, query model.DeviceQuery) bool {
	if len(query.RegionCodes) > 0 && !containsString(query.RegionCodes, device.RegionCode) {
		return false
	}
	if len(query.CityCodes) > 0 && !containsString(query.CityCodes, device.CityCode) {
		return false
	}

	if query.Category1 != nil && device.Category1 != *query.Category1 {
		return false
	}
	if query.Category2 != nil && device.Category2 != *query.Category2 {
		return false
	}
	if query.Category3 != nil && device.Category3 != *query.Category3 {
		return false
	}

	now := m.now()
	windows := []struct {
		window *model.ExpiryWindow
		date   *time.Time
	}{
		{query.BatteryExpiry, device.BatteryExpiryDate},
		{query.PadExpiry, device.PadExpiryDate},
		{query.ReplacementDue, device.ReplacementDate},
		{query.LastInspection, device.LastInspectionDate},
	}
	for _, w := range windows {
		if w.window != nil && !windowMatches(*w.window, w.date, now) {
			return false
		}
	}

	if query.Search != nil {
		needle := strings.ToLower(*query.Search)
		var haystack string
		if query.QueryCriteria == model.CriteriaJurisdiction {
			haystack = device.RegionCode + " " + device.CityCode + " " + device.ManagingAgency
		} else {
			haystack = device.Address + " " + device.InstallLocation
		}
		if !strings.Contains(strings.ToLower(haystack), needle) {
			return false
		}
	}

	return true
}

func windowMatches(window model.ExpiryWindow, date *time.Time, now time.Time) bool {
	switch window {
	case model.ExpiryNever:
		return date == nil
	case model.ExpiryExpired:
		return date != nil && date.Before(now)
	case model.ExpiryWithin30Days:
		return date != nil && !date.Before(now) && date.Before(now.AddDate(0, 0, 30))
	case model.ExpiryWithin90Days:
		return date != nil && !date.Before(now) && date.Before(now.AddDate(0, 0, 90))
	}
	return false
}

func (m *MockDeviceSearcher) countExpiringSoon(devices []model.Device) int {
	now := m.now()
	count := 0
	for _, device := range devices {
		if windowMatches(model.ExpiryWithin30Days, device.BatteryExpiryDate, now) ||
			windowMatches(model.ExpiryWithin30Days, device.PadExpiryDate, now) {
			count++
		}
	}
	return count
}

func (m *MockDeviceSearcher) filterEcho(query model.DeviceQuery) model.FilterEcho {
	regions := model.NewCodeSet()
	cities := model.NewCodeSet()
	for _, device := range m.devices {
		regions.Add(device.RegionCode)
		cities.Add(device.CityCode)
	}

	applied := map[string][]string{
		"queryCriteria": {string(query.QueryCriteria)},
	}
	if len(query.RegionCodes) > 0 {
		applied["regionCodes"] = query.RegionCodes
	}
	if len(query.CityCodes) > 0 {
		applied["cityCodes"] = query.CityCodes
	}
	if query.Search != nil {
		applied["search"] = []string{*query.Search}
	}

	return model.FilterEcho{
		Available: map[string][]string{
			"regionCodes": regions.Sorted(),
			"cityCodes":   cities.Sorted(),
		},
		Applied: applied,
		Enforced: model.EnforcedFilters{
			// The mock always imposes its own sort order.
			AppliedDefaults: []string{"sort"},
		},
	}
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeCursor(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", errors.NewValidation("invalid cursor token", err)
	}
	return string(raw), nil
}

func sampleDevices(base time.Time) []model.Device {
	datePtr := func(days int) *time.Time {
		d := base.AddDate(0, 0, days)
		return &d
	}

	return []model.Device{
		{
			ID:                 "AED-0001",
			InstallLocation:    "시청 1층 로비",
			Address:            "서울특별시 중구 세종대로 110",
			RegionCode:         "서울",
			CityCode:           "중구",
			Category1:          "공공기관",
			Category2:          "청사",
			ManagingAgency:     "서울특별시청",
			BatteryExpiryDate:  datePtr(20),
			PadExpiryDate:      datePtr(200),
			LastInspectionDate: datePtr(-40),
		},
		{
			ID:                "AED-0002",
			InstallLocation:   "종로구보건소 민원실",
			Address:           "서울특별시 종로구 율곡로 14",
			RegionCode:        "서울",
			CityCode:          "종로구",
			Category1:         "보건의료기관",
			Category2:         "보건소",
			ManagingAgency:    "종로구보건소",
			BatteryExpiryDate: datePtr(-10),
			PadExpiryDate:     datePtr(60),
		},
		{
			ID:                 "AED-0003",
			InstallLocation:    "부산역 대합실",
			Address:            "부산광역시 동구 중앙대로 206",
			RegionCode:         "부산",
			CityCode:           "동구",
			Category1:          "교통시설",
			Category2:          "철도역",
			ManagingAgency:     "한국철도공사",
			BatteryExpiryDate:  datePtr(300),
			PadExpiryDate:      datePtr(15),
			ReplacementDate:    datePtr(-5),
			LastInspectionDate: datePtr(-400),
		},
	}
}
