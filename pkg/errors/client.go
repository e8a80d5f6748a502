// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package errors

import "errors"

// Validation represents a request that is malformed or out of range.
type Validation struct {
	base
}

// Error returns the error message for Validation.
func (v Validation) Error() string {
	return v.error()
}

// Unwrap returns the wrapped cause, if any.
func (v Validation) Unwrap() error {
	return v.unwrap()
}

// NewValidation creates a new Validation error with the provided message.
func NewValidation(message string, err ...error) Validation {
	return Validation{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// NotFound represents a lookup that matched nothing.
type NotFound struct {
	base
}

// Error returns the error message for NotFound.
func (n NotFound) Error() string {
	return n.error()
}

// Unwrap returns the wrapped cause, if any.
func (n NotFound) Unwrap() error {
	return n.unwrap()
}

// NewNotFound creates a new NotFound error with the provided message.
func NewNotFound(message string, err ...error) NotFound {
	return NotFound{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// AccessDenied represents an explicit selection of a region, city or record
// outside the caller's access scope. Routine scope narrowing never raises
// this; it is reserved for values that could only arrive from outside the
// scoped option list, such as a hand-crafted URL.
type AccessDenied struct {
	base
}

// Error returns the error message for AccessDenied.
func (a AccessDenied) Error() string {
	return a.error()
}

// Unwrap returns the wrapped cause, if any.
func (a AccessDenied) Unwrap() error {
	return a.unwrap()
}

// NewAccessDenied creates a new AccessDenied error with the provided message.
func NewAccessDenied(message string, err ...error) AccessDenied {
	return AccessDenied{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}
