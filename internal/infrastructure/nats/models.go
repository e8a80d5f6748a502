// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package nats

import (
	"time"
)

// Config represents NATS configuration
type Config struct {
	// URL is the NATS server URL
	URL string `json:"url"`
	// Timeout is the request timeout duration
	Timeout time.Duration `json:"timeout"`
	// MaxReconnect is the maximum number of reconnection attempts
	MaxReconnect int `json:"max_reconnect"`
	// ReconnectWait is the time to wait between reconnection attempts
	ReconnectWait time.Duration `json:"reconnect_wait"`
}

// ProfileLookupRequest is the request payload published on the profile
// lookup subject.
type ProfileLookupRequest struct {
	Principal string `json:"principal"`
}
