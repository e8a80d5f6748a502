// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package model

import (
	"net/url"
	"strconv"
	"time"

	"github.com/aedwatch/device-query-service/pkg/constants"
)

// CacheEpoch is the daily-rotating cache partition key appended to every
// query. It is computed once and injected, never derived from scattered
// wall-clock reads, so switching epochs invalidates exactly one cache key.
type CacheEpoch string

// DailyEpoch returns the cache epoch for the UTC day containing t.
func DailyEpoch(t time.Time) CacheEpoch {
	return CacheEpoch(t.UTC().Format(constants.CacheEpochLayout))
}

// DeviceQuery is the fully-resolved parameter set sent to a paged query
// backend. Unlike DeviceFilters it has no unset-with-default fields: the
// query serializer has already injected role defaults and dropped
// all-sentinel values.
type DeviceQuery struct {
	RegionCodes []string
	CityCodes   []string

	BatteryExpiry  *ExpiryWindow
	PadExpiry      *ExpiryWindow
	ReplacementDue *ExpiryWindow
	LastInspection *ExpiryWindow

	Category1 *string
	Category2 *string
	Category3 *string

	Search *string

	QueryCriteria QueryCriteria

	Cursor *string
	Page   int
	Limit  int

	CacheEpoch CacheEpoch
}

// Values encodes the query as HTTP query parameters. Unset fields are
// omitted entirely rather than sent with placeholder values.
func (q DeviceQuery) Values() url.Values {
	v := url.Values{}

	for _, code := range q.RegionCodes {
		v.Add("regionCodes", code)
	}
	for _, code := range q.CityCodes {
		v.Add("cityCodes", code)
	}

	setWindow := func(field string, w *ExpiryWindow) {
		if w != nil {
			v.Set(field, string(*w))
		}
	}
	setWindow("battery_expiry_date", q.BatteryExpiry)
	setWindow("patch_expiry_date", q.PadExpiry)
	setWindow("replacement_date", q.ReplacementDue)
	setWindow("last_inspection_date", q.LastInspection)

	setString := func(field string, s *string) {
		if s != nil && *s != "" {
			v.Set(field, *s)
		}
	}
	setString("category_1", q.Category1)
	setString("category_2", q.Category2)
	setString("category_3", q.Category3)
	setString("search", q.Search)
	setString("cursor", q.Cursor)

	v.Set("queryCriteria", string(q.QueryCriteria))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("cacheEpoch", string(q.CacheEpoch))

	return v
}

// Key is the deterministic identity of this parameter set, used to match
// in-flight fetches against the state that issued them. url.Values.Encode
// sorts by key, so two equal queries always share a key.
func (q DeviceQuery) Key() string {
	return q.Values().Encode()
}
