// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

// Package queryapi adapts the upstream HTTP device query API to the
// DeviceSearcher port. The upstream service owns filtering, scoping
// summaries, and cursor issuance; this layer serializes parameters and
// decodes the response envelope.
package queryapi

import (
	"context"
	"log/slog"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

// DeviceSearcher implements the DeviceSearcher port against the upstream
// device query API.
type DeviceSearcher struct {
	client *Client
}

// QueryDevices implements the DeviceSearcher port.
func (s *DeviceSearcher) QueryDevices(ctx context.Context, query model.DeviceQuery) (*model.DeviceSearchResult, error) {
	slog.DebugContext(ctx, "querying upstream device API",
		"regions", query.RegionCodes,
		"cities", query.CityCodes,
		"page", query.Page,
	)

	envelope, err := s.client.ListDevices(ctx, query.Values())
	if err != nil {
		slog.ErrorContext(ctx, "upstream device query failed", "error", err)
		return nil, err
	}

	result := convertEnvelope(envelope)

	slog.DebugContext(ctx, "upstream device query completed",
		"devices", len(result.Devices),
		"total", result.Summary.TotalCount,
		"has_more", result.PageInfo.HasMore,
	)

	return result, nil
}

// IsReady implements the DeviceSearcher port.
func (s *DeviceSearcher) IsReady(ctx context.Context) error {
	return s.client.IsReady(ctx)
}

func convertEnvelope(envelope *deviceEnvelope) *model.DeviceSearchResult {
	devices := make([]model.Device, len(envelope.Data))
	for i, wire := range envelope.Data {
		devices[i] = model.Device{
			ID:                 wire.ID,
			InstallLocation:    wire.InstallLocation,
			Address:            wire.Address,
			RegionCode:         wire.RegionCode,
			CityCode:           wire.CityCode,
			Category1:          wire.Category1,
			Category2:          wire.Category2,
			Category3:          wire.Category3,
			ManagingAgency:     wire.ManagingAgency,
			BatteryExpiryDate:  wire.BatteryExpiryDate,
			PadExpiryDate:      wire.PadExpiryDate,
			ReplacementDate:    wire.ReplacementDate,
			LastInspectionDate: wire.LastInspectionDate,
		}
	}

	return &model.DeviceSearchResult{
		Devices: devices,
		Summary: model.Summary{
			TotalCount:   envelope.Summary.TotalCount,
			ExpiringSoon: envelope.Summary.ExpiringSoon,
		},
		PageInfo: model.PageInfo{
			Page:       envelope.Pagination.Page,
			Limit:      envelope.Pagination.Limit,
			HasMore:    envelope.Pagination.HasMore,
			NextCursor: envelope.Pagination.NextCursor,
		},
		Filters: model.FilterEcho{
			Available: envelope.Filters.Available,
			Applied:   envelope.Filters.Applied,
			Enforced: model.EnforcedFilters{
				AppliedDefaults: envelope.Filters.Enforced.AppliedDefaults,
			},
		},
	}
}

// NewDeviceSearcher creates a device searcher backed by the upstream
// device query API.
func NewDeviceSearcher(config Config) *DeviceSearcher {
	return &DeviceSearcher{client: NewClient(config)}
}
