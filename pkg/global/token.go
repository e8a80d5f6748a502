// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package global

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

var (
	cursorTokenSecret       [32]byte
	doOnceCursorTokenSecret sync.Once
)

// CursorTokenSecret retrieves the secret used for sealing and opening
// cursor tokens. The process exits if the secret is not configured, since
// serving unsealed cursors would leak backend sort keys.
func CursorTokenSecret(ctx context.Context) *[32]byte {

	doOnceCursorTokenSecret.Do(func() {

		const cursorTokenSecretName = "CURSOR_TOKEN_SECRET"

		cursorTokenSecretValue := os.Getenv(cursorTokenSecretName)
		if cursorTokenSecretValue == "" {
			slog.ErrorContext(ctx, fmt.Sprintf("%s environment variable is not set", cursorTokenSecretName))
			os.Exit(1)
		}
		copy(cursorTokenSecret[:], []byte(cursorTokenSecretValue))
	})

	return &cursorTokenSecret
}
