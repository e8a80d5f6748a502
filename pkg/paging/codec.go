// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

// Package paging seals backend pagination positions into opaque cursor
// tokens. Positions are JSON-serialized, encrypted with nacl/secretbox and
// base64-encoded, so clients can hold and replay them but never inspect or
// forge the underlying sort keys.
package paging

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/aedwatch/device-query-service/pkg/constants"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

// SealCursor takes a JSON-serializable pagination position (e.g. the sort
// values of the last hit on a page) and returns an opaque base64 token.
func SealCursor(position any, secretKey *[32]byte) (string, error) {
	encoded, err := json.Marshal(position)
	if err != nil {
		return "", errors.NewUnexpected("failed to marshal cursor position", err)
	}

	var nonce [constants.NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.NewUnexpected("failed to generate nonce for cursor token", err)
	}

	sealed := secretbox.Seal(nonce[:], encoded, &nonce, secretKey)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// OpenCursor takes a base64-encoded, secretbox-encrypted cursor token and
// returns the JSON pagination position it seals. Returns a Validation error
// if decoding, decryption, or unmarshaling fails.
func OpenCursor(ctx context.Context, token string, secretKey *[32]byte) (json.RawMessage, error) {

	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewValidation("invalid encoded cursor token", err)
	}

	if len(sealed) < constants.NonceSize+secretbox.Overhead {
		return nil, errors.NewValidation(
			"invalid cursor token length",
			fmt.Errorf("expected at least %d bytes, got %d", constants.NonceSize+secretbox.Overhead, len(sealed)),
		)
	}

	var nonce [constants.NonceSize]byte
	copy(nonce[:], sealed[:constants.NonceSize])
	opened, ok := secretbox.Open(nil, sealed[constants.NonceSize:], &nonce, secretKey)
	if !ok {
		return nil, errors.NewValidation("failed to decrypt cursor token")
	}

	position := json.RawMessage(opened)
	if !json.Valid(position) {
		return nil, errors.NewValidation("cursor token does not seal valid JSON")
	}

	slog.DebugContext(ctx, "opened cursor token",
		"position", string(position),
	)

	return position, nil
}
