// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"slices"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/pkg/errors"
)

// FilterDraft is a staging area for filter edits. Widgets accumulate
// partial edits here (e.g. a region before its city) without triggering
// queries; nothing reaches the canonical state until ApplyDraft commits
// the whole draft atomically.
type FilterDraft struct {
	RegionCodes []string
	CityCodes   []string

	BatteryExpiry  *model.ExpiryWindow
	PadExpiry      *model.ExpiryWindow
	ReplacementDue *model.ExpiryWindow
	LastInspection *model.ExpiryWindow

	Category1 *string
	Category2 *string
	Category3 *string

	Search *string

	QueryCriteria *model.QueryCriteria

	// Limit changes the page size on commit; nil keeps the current one.
	Limit *int
}

// NewDraft seeds a draft from the currently-applied filters.
func (s *FilterSession) NewDraft() *FilterDraft {
	applied := s.Filters()
	return &FilterDraft{
		RegionCodes:    applied.RegionCodes,
		CityCodes:      applied.CityCodes,
		BatteryExpiry:  applied.BatteryExpiry,
		PadExpiry:      applied.PadExpiry,
		ReplacementDue: applied.ReplacementDue,
		LastInspection: applied.LastInspection,
		Category1:      applied.Category1,
		Category2:      applied.Category2,
		Category3:      applied.Category3,
		Search:         applied.Search,
		QueryCriteria:  applied.QueryCriteria,
	}
}

// ApplyDraft validates the draft against the access scope and commits it
// as the canonical filter state. Selections of regions or cities outside
// the scope are rejected with AccessDenied before anything reaches the
// store: values the scoped option list never offered can only come from
// outside the UI, e.g. a hand-crafted URL.
func (s *FilterSession) ApplyDraft(draft *FilterDraft) error {
	if draft == nil {
		return errors.NewValidation("filter draft must not be nil")
	}

	scope := s.Scope()
	for _, code := range draft.RegionCodes {
		if !scope.AllowsRegion(code) {
			return errors.NewAccessDenied(fmt.Sprintf("region %q is outside the permitted scope", code))
		}
	}
	for _, code := range draft.CityCodes {
		if !scope.AllowsCity(code) {
			return errors.NewAccessDenied(fmt.Sprintf("city %q is outside the permitted scope", code))
		}
	}

	s.UpdateFilters(func(applied model.DeviceFilters) model.DeviceFilters {
		next := applied
		next.RegionCodes = slices.Clone(draft.RegionCodes)
		next.CityCodes = slices.Clone(draft.CityCodes)
		next.BatteryExpiry = draft.BatteryExpiry
		next.PadExpiry = draft.PadExpiry
		next.ReplacementDue = draft.ReplacementDue
		next.LastInspection = draft.LastInspection
		next.Category1 = draft.Category1
		next.Category2 = draft.Category2
		next.Category3 = draft.Category3
		next.Search = draft.Search
		next.QueryCriteria = draft.QueryCriteria
		if draft.Limit != nil {
			next.Limit = *draft.Limit
		}
		return next
	})
	return nil
}
