// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package queryapi

import (
	"fmt"
	"time"
)

// Config holds the configuration for the upstream device query API client
type Config struct {
	// BaseURL is the base URL of the device query API
	BaseURL string

	// APIKey optionally authenticates service-to-service calls
	APIKey string

	// Timeout is the HTTP client timeout for API requests
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the delay between retry attempts
	RetryDelay time.Duration
}

// NewConfig creates a query API configuration with the provided parameters
func NewConfig(baseURL, apiKey, timeout string, maxRetries int, retryDelay string) (Config, error) {
	if baseURL == "" {
		return Config{}, fmt.Errorf("base URL is required for query API configuration")
	}

	if timeout == "" {
		timeout = "10s"
	}
	timeoutDuration, err := time.ParseDuration(timeout)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}

	if retryDelay == "" {
		retryDelay = "1s"
	}
	retryDelayDuration, err := time.ParseDuration(retryDelay)
	if err != nil {
		return Config{}, fmt.Errorf("invalid retry delay duration: %w", err)
	}

	return Config{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Timeout:    timeoutDuration,
		MaxRetries: maxRetries,
		RetryDelay: retryDelayDuration,
	}, nil
}
