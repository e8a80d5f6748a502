// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package opensearch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

type apiClient struct {
	client *opensearchapi.Client
}

func (c *apiClient) Search(ctx context.Context, index string, query []byte, preference string) (*SearchResponse, error) {

	slog.DebugContext(ctx, "executing opensearch search",
		"index", index,
		"preference", preference,
	)

	searchRequest := opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    bytes.NewReader(query),
		Params: opensearchapi.SearchParams{
			Source:     true,
			Preference: preference,
		},
	}

	searchResponse, errSearchResponse := c.client.Search(ctx, &searchRequest)
	if errSearchResponse != nil {
		return nil, fmt.Errorf("failed to execute search: %w", errSearchResponse)
	}
	if searchResponse.Errors {
		return nil, fmt.Errorf("opensearch search returned errors")
	}

	result := &SearchResponse{
		Hits: Hits{
			Total: Total{
				Value: searchResponse.Hits.Total.Value,
			},
			Hits: make([]Hit, len(searchResponse.Hits.Hits)),
		},
	}
	for i, hit := range searchResponse.Hits.Hits {
		result.Hits.Hits[i] = Hit{
			ID:     hit.ID,
			Source: hit.Source,
			Sort:   hit.Sort,
		}
	}

	if len(searchResponse.Aggregations) > 0 {
		if err := decodeAggregations(searchResponse.Aggregations, &result.Aggregations); err != nil {
			slog.WarnContext(ctx, "failed to decode aggregations", "error", err)
		}
	}

	return result, nil
}

func (c *apiClient) Ping(ctx context.Context) error {
	if _, err := c.client.Ping(ctx, &opensearchapi.PingReq{}); err != nil {
		return fmt.Errorf("opensearch ping failed: %w", err)
	}
	return nil
}
