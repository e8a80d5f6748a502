// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package queryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aedwatch/device-query-service/pkg/errors"
	"github.com/aedwatch/device-query-service/pkg/httpclient"
)

// Client is a thin HTTP client for the upstream device query API
type Client struct {
	config     Config
	httpClient *httpclient.Client
}

// ListDevices performs GET /v1/devices with the given query parameters
func (c *Client) ListDevices(ctx context.Context, params url.Values) (*deviceEnvelope, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v1/devices", c.config.BaseURL))
	if err != nil {
		return nil, errors.NewUnexpected("failed to parse base URL", err)
	}
	u.RawQuery = params.Encode()

	var envelope deviceEnvelope
	if err := c.makeRequest(ctx, u.String(), &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// makeRequest performs the HTTP request using the generic retrying client
func (c *Client) makeRequest(ctx context.Context, url string, model any) error {
	var headers map[string]string
	if c.config.APIKey != "" {
		headers = map[string]string{
			"Authorization": fmt.Sprintf("Bearer %s", c.config.APIKey),
		}
	}

	resp, err := c.httpClient.Get(ctx, url, headers)
	if err != nil {
		if httpErr, ok := err.(*httpclient.RetryableError); ok {
			switch httpErr.StatusCode {
			case http.StatusNotFound:
				return errors.NewNotFound("device query endpoint not found")
			case http.StatusBadRequest, http.StatusUnprocessableEntity:
				return errors.NewValidation("upstream rejected query parameters", err)
			case http.StatusUnauthorized, http.StatusForbidden:
				return errors.NewAccessDenied("upstream rejected credentials", err)
			default:
				return errors.NewServiceUnavailable("device query API unavailable", err)
			}
		}
		return errors.NewServiceUnavailable("device query API unreachable", err)
	}

	if err := json.Unmarshal(resp.Body, model); err != nil {
		return errors.NewUnexpected("failed to decode response", err)
	}

	return nil
}

// IsReady checks if the device query API is reachable
func (c *Client) IsReady(ctx context.Context) error {
	resp, err := c.httpClient.Get(ctx, fmt.Sprintf("%s/livez", c.config.BaseURL), nil)
	if err != nil {
		return errors.NewServiceUnavailable("device query API is not reachable", err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.NewServiceUnavailable("device query API is not ready", fmt.Errorf("status code: %d", resp.StatusCode))
	}

	return nil
}

// NewClient creates a new device query API client
func NewClient(config Config) *Client {
	httpConfig := httpclient.Config{
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryDelay:   config.RetryDelay,
		RetryBackoff: true,
	}

	return &Client{
		config:     config,
		httpClient: httpclient.NewClient(httpConfig),
	}
}
