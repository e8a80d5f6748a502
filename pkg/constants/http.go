// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package constants

type contextID string

// RequestIDHeader is the header name for the request ID.
const RequestIDHeader = "X-REQUEST-ID"

const (
	// PrincipalContextID keys the authenticated principal in a request context.
	PrincipalContextID contextID = "principal"

	// RequestIDContextID keys the request ID in a request context.
	RequestIDContextID contextID = "request_id"
)

// PrincipalAttribute is the slog attribute name for the authenticated principal.
const PrincipalAttribute = "principal"
