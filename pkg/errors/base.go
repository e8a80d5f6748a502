// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package errors

import "fmt"

// base holds the fields shared by every error type in this package.
type base struct {
	message string
	err     error
}

// error renders the message, appending the wrapped cause when present.
// Every error type that embeds base formats through here.
func (b base) error() string {
	if b.err == nil {
		return b.message
	}
	return fmt.Sprintf("%s: %v", b.message, b.err)
}

// unwrap exposes the wrapped cause for errors.Is/As chains.
func (b base) unwrap() error {
	return b.err
}
