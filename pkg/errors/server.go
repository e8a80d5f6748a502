// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package errors

import "errors"

// Unexpected represents an internal failure that callers cannot act on.
type Unexpected struct {
	base
}

// Error returns the error message for Unexpected.
func (u Unexpected) Error() string {
	return u.error()
}

// Unwrap returns the wrapped cause, if any.
func (u Unexpected) Unwrap() error {
	return u.unwrap()
}

// NewUnexpected creates a new Unexpected error with the provided message.
func NewUnexpected(message string, err ...error) Unexpected {
	return Unexpected{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// ServiceUnavailable represents a transport-level failure talking to a
// collaborator service. It is retryable and never mutates caller state.
type ServiceUnavailable struct {
	base
}

// Error returns the error message for ServiceUnavailable.
func (su ServiceUnavailable) Error() string {
	return su.error()
}

// Unwrap returns the wrapped cause, if any.
func (su ServiceUnavailable) Unwrap() error {
	return su.unwrap()
}

// NewServiceUnavailable creates a new ServiceUnavailable error with the provided message.
func NewServiceUnavailable(message string, err ...error) ServiceUnavailable {
	return ServiceUnavailable{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}
