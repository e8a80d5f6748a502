// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package constants

const (
	// DefaultPageSize is the default number of devices per page.
	DefaultPageSize = 20

	// CursorHistoryCap bounds the number of previously-seen cursors kept
	// for backward navigation.
	CursorHistoryCap = 100

	// NonceSize is the secretbox nonce length used by cursor tokens.
	NonceSize = 24

	// CacheEpochLayout formats the daily cache partition key.
	CacheEpochLayout = "20060102"
)

// AllowedPageSizes is the fixed set of page sizes the UI may request.
var AllowedPageSizes = []int{10, 20, 50, 100}

// PageSizeAllowed reports whether limit is one of the allowed page sizes.
func PageSizeAllowed(limit int) bool {
	for _, n := range AllowedPageSizes {
		if limit == n {
			return true
		}
	}
	return false
}
