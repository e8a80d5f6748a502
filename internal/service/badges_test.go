// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

func TestBadges(t *testing.T) {
	assertion := assert.New(t)

	session := newTestSession(&stubSearcher{}, model.UserAccessScope{})
	assertion.Empty(session.Badges())

	session.UpdateFilters(func(f model.DeviceFilters) model.DeviceFilters {
		window := model.ExpiryExpired
		category := "공공기관"
		search := " 시청 "
		f.RegionCodes = []string{"서울", "부산"}
		f.BatteryExpiry = &window
		f.Category1 = &category
		f.Search = &search
		return f
	})

	badges := session.Badges()
	assertion.Len(badges, 4)

	byField := map[string]FilterBadge{}
	for _, badge := range badges {
		byField[badge.Field] = badge
	}

	assertion.Equal("서울, 부산", byField["regionCodes"].Value)
	assertion.Equal("기한 경과", byField["battery_expiry_date"].Value)
	assertion.Equal("공공기관", byField["category_1"].Value)
	assertion.Equal("시청", byField["search"].Value)
}

func TestEnforcedDefaultLabels(t *testing.T) {
	assertion := assert.New(t)
	ctx := context.Background()

	searcher := &stubSearcher{
		result: &model.DeviceSearchResult{
			PageInfo: model.PageInfo{Page: 1, Limit: 20},
			Filters: model.FilterEcho{
				Enforced: model.EnforcedFilters{
					AppliedDefaults: []string{"queryCriteria", "sort", "x_unknown_field"},
				},
			},
		},
	}
	session := newTestSession(searcher, model.UserAccessScope{})

	// No response yet: nothing enforced to show.
	assertion.Nil(session.EnforcedDefaultLabels())

	_, err := session.Query(ctx)
	assertion.NoError(err)

	labels := session.EnforcedDefaultLabels()
	assertion.Equal([]string{"조회 기준", "정렬 순서", "x_unknown_field"}, labels)
}
