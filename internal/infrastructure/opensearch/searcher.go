// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"text/template"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/internal/domain/port"
	"github.com/aedwatch/device-query-service/pkg/errors"
	"github.com/aedwatch/device-query-service/pkg/global"
	"github.com/aedwatch/device-query-service/pkg/paging"
)

var queryDevicesTemplate = template.Must(
	template.New("queryDevices").
		Funcs(template.FuncMap{
			"quote": strconv.Quote,
		}).
		Parse(queryDevicesSource))

// SearchClient defines the OpenSearch operations the searcher needs.
// This allows for easy mocking and testing.
type SearchClient interface {
	Search(ctx context.Context, index string, query []byte, preference string) (*SearchResponse, error)
	Ping(ctx context.Context) error
}

// DeviceSearcher implements the DeviceSearcher port on top of an
// OpenSearch device index.
type DeviceSearcher struct {
	client SearchClient
	index  string
}

type termClause struct {
	Field string
	Value string
}

type rangeClause struct {
	Field string
	Gte   string
	Lt    string
}

type queryTemplateData struct {
	RegionCodes  []string
	CityCodes    []string
	Terms        []termClause
	Ranges       []rangeClause
	MissingDates []string
	Search       string
	SearchFields []string
	SearchAfter  string
	Size         int
}

// QueryDevices implements the DeviceSearcher port.
func (d *DeviceSearcher) QueryDevices(ctx context.Context, query model.DeviceQuery) (*model.DeviceSearchResult, error) {
	slog.DebugContext(ctx, "executing opensearch device query",
		"regions", query.RegionCodes,
		"cities", query.CityCodes,
		"page", query.Page,
	)

	var searchAfter json.RawMessage
	if query.Cursor != nil {
		position, err := paging.OpenCursor(ctx, *query.Cursor, global.CursorTokenSecret(ctx))
		if err != nil {
			return nil, err
		}
		searchAfter = position
	}

	body, err := d.Render(ctx, query, searchAfter)
	if err != nil {
		return nil, err
	}

	// The daily cache epoch routes identical parameter sets to the same
	// shard copies, so result caches stay warm within a day.
	response, err := d.client.Search(ctx, d.index, body, string(query.CacheEpoch))
	if err != nil {
		return nil, errors.NewServiceUnavailable("opensearch search failed", err)
	}

	return d.convertResponse(ctx, query, response)
}

// IsReady implements the DeviceSearcher port.
func (d *DeviceSearcher) IsReady(ctx context.Context) error {
	return d.client.Ping(ctx)
}

// Render generates the OpenSearch query body for the device query.
func (d *DeviceSearcher) Render(ctx context.Context, query model.DeviceQuery, searchAfter json.RawMessage) ([]byte, error) {
	data := buildTemplateData(query, searchAfter)

	var buf bytes.Buffer
	if err := queryDevicesTemplate.Execute(&buf, data); err != nil {
		slog.ErrorContext(ctx, "failed to render query template", "error", err)
		return nil, errors.NewUnexpected("failed to render query template", err)
	}

	rendered := buf.Bytes()
	if !json.Valid(rendered) {
		slog.ErrorContext(ctx, "rendered query is not valid JSON", "query", buf.String())
		return nil, errors.NewUnexpected("rendered query is not valid JSON")
	}

	return rendered, nil
}

func buildTemplateData(query model.DeviceQuery, searchAfter json.RawMessage) queryTemplateData {
	data := queryTemplateData{
		RegionCodes: query.RegionCodes,
		CityCodes:   query.CityCodes,
		// Fetch one extra hit to detect whether another page exists.
		Size: query.Limit + 1,
	}

	categories := []struct {
		field string
		value *string
	}{
		{"category_1", query.Category1},
		{"category_2", query.Category2},
		{"category_3", query.Category3},
	}
	for _, category := range categories {
		if category.value != nil {
			data.Terms = append(data.Terms, termClause{Field: category.field, Value: *category.value})
		}
	}

	windows := []struct {
		field  string
		window *model.ExpiryWindow
	}{
		{"battery_expiry_date", query.BatteryExpiry},
		{"pad_expiry_date", query.PadExpiry},
		{"replacement_date", query.ReplacementDue},
		{"last_inspection_date", query.LastInspection},
	}
	for _, w := range windows {
		if w.window == nil {
			continue
		}
		switch *w.window {
		case model.ExpiryNever:
			data.MissingDates = append(data.MissingDates, w.field)
		case model.ExpiryExpired:
			data.Ranges = append(data.Ranges, rangeClause{Field: w.field, Lt: "now/d"})
		case model.ExpiryWithin30Days:
			data.Ranges = append(data.Ranges, rangeClause{Field: w.field, Gte: "now/d", Lt: "now+30d/d"})
		case model.ExpiryWithin90Days:
			data.Ranges = append(data.Ranges, rangeClause{Field: w.field, Gte: "now/d", Lt: "now+90d/d"})
		}
	}

	if query.Search != nil {
		data.Search = *query.Search
		if query.QueryCriteria == model.CriteriaJurisdiction {
			data.SearchFields = []string{"region_code", "city_code", "managing_agency"}
		} else {
			data.SearchFields = []string{"address", "address._2gram", "install_location"}
		}
	}

	if len(searchAfter) > 0 {
		data.SearchAfter = string(searchAfter)
	}

	return data
}

func (d *DeviceSearcher) convertResponse(ctx context.Context, query model.DeviceQuery, response *SearchResponse) (*model.DeviceSearchResult, error) {
	hits := response.Hits.Hits
	hasMore := len(hits) > query.Limit
	if hasMore {
		hits = hits[:query.Limit]
	}

	devices := make([]model.Device, 0, len(hits))
	for _, hit := range hits {
		device, err := convertHit(hit)
		if err != nil {
			// Skip malformed documents but keep serving the page.
			slog.ErrorContext(ctx, "failed to convert hit", "hit_id", hit.ID, "error", err)
			continue
		}
		devices = append(devices, device)
	}

	result := &model.DeviceSearchResult{
		Devices: devices,
		Summary: model.Summary{
			TotalCount:   response.Hits.Total.Value,
			ExpiringSoon: response.Aggregations.ExpiringSoon.DocCount,
		},
		PageInfo: model.PageInfo{
			Page:    query.Page,
			Limit:   query.Limit,
			HasMore: hasMore,
		},
		Filters: filterEcho(query, response.Aggregations),
	}

	if hasMore && len(hits) > 0 {
		token, err := paging.SealCursor(hits[len(hits)-1].Sort, global.CursorTokenSecret(ctx))
		if err != nil {
			slog.ErrorContext(ctx, "failed to seal cursor token", "error", err)
			return nil, err
		}
		result.PageInfo.NextCursor = &token
	}

	return result, nil
}

func convertHit(hit Hit) (model.Device, error) {
	var source deviceSource
	if err := json.Unmarshal(hit.Source, &source); err != nil {
		return model.Device{}, err
	}

	return model.Device{
		ID:                 hit.ID,
		InstallLocation:    source.InstallLocation,
		Address:            source.Address,
		RegionCode:         source.RegionCode,
		CityCode:           source.CityCode,
		Category1:          source.Category1,
		Category2:          source.Category2,
		Category3:          source.Category3,
		ManagingAgency:     source.ManagingAgency,
		BatteryExpiryDate:  source.BatteryExpiryDate,
		PadExpiryDate:      source.PadExpiryDate,
		ReplacementDate:    source.ReplacementDate,
		LastInspectionDate: source.LastInspectionDate,
	}, nil
}

func filterEcho(query model.DeviceQuery, aggregations AggregationResponse) model.FilterEcho {
	available := map[string][]string{}
	if len(aggregations.Regions.Buckets) > 0 {
		available["regionCodes"] = bucketKeys(aggregations.Regions.Buckets)
	}
	if len(aggregations.Cities.Buckets) > 0 {
		available["cityCodes"] = bucketKeys(aggregations.Cities.Buckets)
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
		Available: available,
		Applied:   applied,
		Enforced: model.EnforcedFilters{
			AppliedDefaults: []string{"sort"},
		},
	}
}

func bucketKeys(buckets []AggregationBucket) []string {
	keys := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		keys = append(keys, bucket.Key)
	}
	return keys
}

// NewSearcher returns a DeviceSearcher backed by an OpenSearch cluster.
func NewSearcher(ctx context.Context, config Config) (port.DeviceSearcher, error) {

	if config.URL == "" {
		slog.ErrorContext(ctx, "opensearch URL is required")
		return nil, errors.NewValidation("opensearch URL is required")
	}
	if config.Index == "" {
		slog.ErrorContext(ctx, "opensearch index is required")
		return nil, errors.NewValidation("opensearch index is required")
	}

	opensearchClient, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: []string{config.URL},
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   10,
				ResponseHeaderTimeout: time.Second,
				DialContext:           (&net.Dialer{Timeout: 3 * time.Second}).DialContext,
			},
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create OpenSearch client", "error", err)
		return nil, errors.NewServiceUnavailable("failed to create OpenSearch client", err)
	}

	return &DeviceSearcher{
		client: &apiClient{client: opensearchClient},
		index:  config.Index,
	}, nil
}

// NewSearcherWithClient returns a DeviceSearcher over a caller-supplied
// client. Intended for tests.
func NewSearcherWithClient(client SearchClient, index string) *DeviceSearcher {
	return &DeviceSearcher{client: client, index: index}
}
