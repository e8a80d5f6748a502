// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/aedwatch/device-query-service/internal/domain/model"
)

// DeviceSearcher defines the behavior of a paged device query backend.
// This abstraction allows different backends (managed query API, OpenSearch,
// in-memory mock) without the core knowing about specific implementations.
type DeviceSearcher interface {
	// QueryDevices returns one page of devices for the resolved query,
	// along with the pagination envelope and the applied/enforced filter
	// echo.
	QueryDevices(ctx context.Context, query model.DeviceQuery) (*model.DeviceSearchResult, error)

	// IsReady checks if the backend is ready to serve queries.
	IsReady(ctx context.Context) error
}
