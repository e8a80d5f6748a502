// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
}

func testDevice(id, region, city string, batteryDays *int) model.Device {
	device := model.Device{
		ID:              id,
		InstallLocation: "로비",
		Address:         region + " " + city + " 중앙로 1",
		RegionCode:      region,
		CityCode:        city,
		Category1:       "공공기관",
	}
	if batteryDays != nil {
		d := fixedNow().AddDate(0, 0, *batteryDays)
		device.BatteryExpiryDate = &d
	}
	return device
}

func intPtr(v int) *int { return &v }

func baseQuery() model.DeviceQuery {
	return model.DeviceQuery{
		QueryCriteria: model.CriteriaAddress,
		CacheEpoch:    model.DailyEpoch(fixedNow()),
		Page:          1,
		Limit:         20,
	}
}

func TestQueryDevicesFiltering(t *testing.T) {
	searcher := NewMockDeviceSearcherAt(fixedNow())
	searcher.AddDevice(testDevice("AED-0001", "서울", "중구", intPtr(10)))
	searcher.AddDevice(testDevice("AED-0002", "서울", "종로구", intPtr(-3)))
	searcher.AddDevice(testDevice("AED-0003", "부산", "동구", nil))

	window30 := model.ExpiryWithin30Days
	expired := model.ExpiryExpired
	never := model.ExpiryNever

	tests := []struct {
		name    string
		mutate  func(*model.DeviceQuery)
		wantIDs []string
	}{
		{
			name:    "no filters returns everything",
			mutate:  func(q *model.DeviceQuery) {},
			wantIDs: []string{"AED-0001", "AED-0002", "AED-0003"},
		},
		{
			name: "region filter",
			mutate: func(q *model.DeviceQuery) {
				q.RegionCodes = []string{"서울"}
			},
			wantIDs: []string{"AED-0001", "AED-0002"},
		},
		{
			name: "city filter",
			mutate: func(q *model.DeviceQuery) {
				q.CityCodes = []string{"종로구"}
			},
			wantIDs: []string{"AED-0002"},
		},
		{
			name: "battery expiring within 30 days",
			mutate: func(q *model.DeviceQuery) {
				q.BatteryExpiry = &window30
			},
			wantIDs: []string{"AED-0001"},
		},
		{
			name: "battery expired",
			mutate: func(q *model.DeviceQuery) {
				q.BatteryExpiry = &expired
			},
			wantIDs: []string{"AED-0002"},
		},
		{
			name: "battery never recorded",
			mutate: func(q *model.DeviceQuery) {
				q.BatteryExpiry = &never
			},
			wantIDs: []string{"AED-0003"},
		},
		{
			name: "address search",
			mutate: func(q *model.DeviceQuery) {
				search := "종로구"
				q.Search = &search
			},
			wantIDs: []string{"AED-0002"},
		},
		{
			name: "jurisdiction search ignores address",
			mutate: func(q *model.DeviceQuery) {
				search := "중앙로"
				q.Search = &search
				q.QueryCriteria = model.CriteriaJurisdiction
			},
			wantIDs: nil,
		},
	}

	assertion := assert.New(t)
	ctx := context.Background()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query := baseQuery()
			tc.mutate(&query)

			result, err := searcher.QueryDevices(ctx, query)
			assertion.NoError(err)

			var ids []string
			for _, device := range result.Devices {
				ids = append(ids, device.ID)
			}
			assertion.Equal(tc.wantIDs, ids)
			assertion.Equal(len(tc.wantIDs), result.Summary.TotalCount)
		})
	}
}

func TestQueryDevicesPagination(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := NewMockDeviceSearcherAt(fixedNow())
	for _, id := range []string{"AED-0001", "AED-0002", "AED-0003", "AED-0004", "AED-0005"} {
		searcher.AddDevice(testDevice(id, "서울", "중구", nil))
	}

	query := baseQuery()
	query.Limit = 2

	first, err := searcher.QueryDevices(ctx, query)
	assertion.NoError(err)
	assertion.Len(first.Devices, 2)
	assertion.True(first.PageInfo.HasMore)
	assertion.NotNil(first.PageInfo.NextCursor)
	assertion.Equal(5, first.Summary.TotalCount)

	query.Cursor = first.PageInfo.NextCursor
	query.Page = 2
	second, err := searcher.QueryDevices(ctx, query)
	assertion.NoError(err)
	assertion.Equal("AED-0003", second.Devices[0].ID)
	assertion.True(second.PageInfo.HasMore)

	query.Cursor = second.PageInfo.NextCursor
	query.Page = 3
	third, err := searcher.QueryDevices(ctx, query)
	assertion.NoError(err)
	assertion.Len(third.Devices, 1)
	assertion.False(third.PageInfo.HasMore)
	assertion.Nil(third.PageInfo.NextCursor)
}

func TestQueryDevicesBadCursor(t *testing.T) {
	assertion := assert.New(t)

	searcher := NewMockDeviceSearcherAt(fixedNow())
	searcher.AddDevice(testDevice("AED-0001", "서울", "중구", nil))

	query := baseQuery()
	bad := "%%%not-base64%%%"
	query.Cursor = &bad

	result, err := searcher.QueryDevices(context.Background(), query)
	assertion.Nil(result)
	assertion.IsType(errors.Validation{}, err)
}

func TestQueryDevicesFilterEcho(t *testing.T) {
	assertion := assert.New(t)

	searcher := NewMockDeviceSearcherAt(fixedNow())
	searcher.AddDevice(testDevice("AED-0001", "서울", "중구", nil))
	searcher.AddDevice(testDevice("AED-0002", "부산", "동구", nil))

	query := baseQuery()
	query.RegionCodes = []string{"서울"}

	result, err := searcher.QueryDevices(context.Background(), query)
	assertion.NoError(err)

	assertion.Equal([]string{"부산", "서울"}, result.Filters.Available["regionCodes"])
	assertion.Equal([]string{"서울"}, result.Filters.Applied["regionCodes"])
	assertion.Equal([]string{"address"}, result.Filters.Applied["queryCriteria"])
	assertion.Contains(result.Filters.Enforced.AppliedDefaults, "sort")
}
