// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package opensearch

import (
	"encoding/json"
	"time"
)

// Config represents OpenSearch configuration
type Config struct {
	URL   string `json:"url"`
	Index string `json:"index"`
}

// SearchResponse represents the subset of the OpenSearch search response
// the searcher consumes.
type SearchResponse struct {
	Hits         Hits                `json:"hits"`
	Aggregations AggregationResponse `json:"aggregations"`
}

// Hits represents the hits in the search response
type Hits struct {
	Total Total `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Total represents the total number of hits
type Total struct {
	Value int `json:"value"`
}

// Hit represents a single search result hit. Sort keeps the library's
// decoded sort values as-is; they are only ever re-marshalled into a
// cursor token.
type Hit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
	Sort   []any           `json:"sort"`
}

// AggregationBucket represents a single aggregation bucket.
type AggregationBucket struct {
	Key      string `json:"key"`
	DocCount uint64 `json:"doc_count"`
}

// TermsAggregation represents a terms aggregation response.
type TermsAggregation struct {
	Buckets []AggregationBucket `json:"buckets"`
}

// FilterAggregation represents a filter aggregation response.
type FilterAggregation struct {
	DocCount int `json:"doc_count"`
}

// AggregationResponse represents the aggregations in a search response.
type AggregationResponse struct {
	Regions      TermsAggregation  `json:"regions"`
	Cities       TermsAggregation  `json:"cities"`
	ExpiringSoon FilterAggregation `json:"expiring_soon"`
}

func decodeAggregations(raw json.RawMessage, into *AggregationResponse) error {
	return json.Unmarshal(raw, into)
}

// deviceSource mirrors the device document layout in the index.
type deviceSource struct {
	InstallLocation    string     `json:"install_location"`
	Address            string     `json:"address"`
	RegionCode         string     `json:"region_code"`
	CityCode           string     `json:"city_code"`
	Category1          string     `json:"category_1"`
	Category2          string     `json:"category_2"`
	Category3          string     `json:"category_3"`
	ManagingAgency     string     `json:"managing_agency"`
	BatteryExpiryDate  *time.Time `json:"battery_expiry_date"`
	PadExpiryDate      *time.Time `json:"pad_expiry_date"`
	ReplacementDate    *time.Time `json:"replacement_date"`
	LastInspectionDate *time.Time `json:"last_inspection_date"`
}
