// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import "github.com/aedwatch/device-query-service/pkg/constants"

// cursorHistory is a fixed-capacity ring buffer of previously-used cursor
// tokens, supporting backward navigation: opaque cursors cannot be computed
// from a page number, so going back means remembering what came before.
// The empty string stands for the absent page-1 cursor. The bound is
// structural; pushing past capacity evicts the oldest entry.
type cursorHistory struct {
	entries [constants.CursorHistoryCap]string
	head    int // index of the oldest entry
	size    int
}

// Push appends a cursor, evicting the oldest entry when full.
func (h *cursorHistory) Push(cursor string) {
	idx := (h.head + h.size) % len(h.entries)
	h.entries[idx] = cursor
	if h.size < len(h.entries) {
		h.size++
		return
	}
	h.head = (h.head + 1) % len(h.entries)
}

// Pop removes and returns the most recently pushed cursor. The second
// return value is false when the history is empty.
func (h *cursorHistory) Pop() (string, bool) {
	if h.size == 0 {
		return "", false
	}
	h.size--
	idx := (h.head + h.size) % len(h.entries)
	cursor := h.entries[idx]
	h.entries[idx] = ""
	return cursor, true
}

// Len returns the number of stored cursors.
func (h *cursorHistory) Len() int {
	return h.size
}

// Clear drops every stored cursor. Old cursors are not guaranteed valid
// against a new filter predicate, so the history is reset, never repaired.
func (h *cursorHistory) Clear() {
	h.entries = [constants.CursorHistoryCap]string{}
	h.head = 0
	h.size = 0
}
