// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aedwatch/device-query-service/pkg/constants"
	"github.com/aedwatch/device-query-service/pkg/log"

	"github.com/google/uuid"
)

// RequestIDMiddleware creates a middleware that adds a request ID to the context
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Reuse the caller-provided request ID when present
			requestID := r.Header.Get(constants.RequestIDHeader)
			if requestID == "" {
				requestID = generateRequestID()
			}

			w.Header().Set(constants.RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), constants.RequestIDContextID, requestID)

			// Stamp the ID into the context-aware logger so every log line
			// for this request carries it
			ctx = log.AppendCtx(ctx, slog.String(constants.RequestIDHeader, requestID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request ID stored by RequestIDMiddleware,
// or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok {
		return requestID
	}
	return ""
}

// generateRequestID generates a new unique request ID
func generateRequestID() string {
	return uuid.New().String()
}
