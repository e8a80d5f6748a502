// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aedwatch/device-query-service/internal/domain/model"
	"github.com/aedwatch/device-query-service/internal/infrastructure/auth"
	"github.com/aedwatch/device-query-service/internal/middleware"
	"github.com/aedwatch/device-query-service/internal/service"
	"github.com/aedwatch/device-query-service/pkg/constants"
	"github.com/aedwatch/device-query-service/pkg/errors"
	"github.com/aedwatch/device-query-service/pkg/log"
)

// deviceAPI exposes the filter sessions over HTTP.
type deviceAPI struct {
	sessions *sessionRegistry
	auth     *auth.JWTAuth
}

// Response envelope, mirroring what the admin frontend consumes.

type deviceView struct {
	ID                 string     `json:"id"`
	InstallLocation    string     `json:"installLocation"`
	Address            string     `json:"address"`
	RegionCode         string     `json:"regionCode"`
	CityCode           string     `json:"cityCode"`
	Category1          string     `json:"category1,omitempty"`
	Category2          string     `json:"category2,omitempty"`
	Category3          string     `json:"category3,omitempty"`
	ManagingAgency     string     `json:"managingAgency,omitempty"`
	BatteryExpiryDate  *time.Time `json:"batteryExpiryDate,omitempty"`
	PadExpiryDate      *time.Time `json:"padExpiryDate,omitempty"`
	ReplacementDate    *time.Time `json:"replacementDate,omitempty"`
	LastInspectionDate *time.Time `json:"lastInspectionDate,omitempty"`
}

type summaryView struct {
	TotalCount   int `json:"totalCount"`
	ExpiringSoon int `json:"expiringSoon"`
}

type paginationView struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

type filtersView struct {
	Available map[string][]string `json:"available,omitempty"`
	Applied   map[string][]string `json:"applied,omitempty"`
	Enforced  []string            `json:"enforcedDefaults,omitempty"`
}

type devicesResponse struct {
	Data       []deviceView   `json:"data"`
	Summary    summaryView    `json:"summary"`
	Pagination paginationView `json:"pagination"`
	Filters    filtersView    `json:"filters"`
}

type badgeView struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type badgesResponse struct {
	Badges           []badgeView `json:"badges"`
	EnforcedDefaults []string    `json:"enforcedDefaults,omitempty"`
}

type filterDraftRequest struct {
	RegionCodes    []string `json:"regionCodes"`
	CityCodes      []string `json:"cityCodes"`
	BatteryExpiry  *string  `json:"batteryExpiry"`
	PadExpiry      *string  `json:"padExpiry"`
	ReplacementDue *string  `json:"replacementDue"`
	LastInspection *string  `json:"lastInspection"`
	Category1      *string  `json:"category1"`
	Category2      *string  `json:"category2"`
	Category3      *string  `json:"category3"`
	Search         *string  `json:"search"`
	QueryCriteria  *string  `json:"queryCriteria"`
	Limit          *int     `json:"limit"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// handleDevices serves GET /devices. Filter parameters in the URL are
// committed through the draft path first, so a hand-crafted deep link with
// out-of-scope codes is rejected with 403 before any query runs. The nav
// parameter advances or rewinds pagination.
func (api *deviceAPI) handleDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := api.session(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	if hasFilterParams(params) {
		draft, err := draftFromParams(params)
		if err != nil {
			api.writeError(ctx, w, err)
			return
		}
		if err := session.ApplyDraft(draft); err != nil {
			api.writeError(ctx, w, err)
			return
		}
	}

	switch params.Get("nav") {
	case "":
	case "next":
		session.NextPage()
	case "prev":
		session.PrevPage()
	default:
		api.writeError(ctx, w, errors.NewValidation("nav must be next or prev"))
		return
	}

	result, err := session.Query(ctx)
	if err != nil {
		if stderrors.Is(err, service.ErrStaleResponse) {
			// The state moved on while this fetch was in flight; the
			// response matching the new state is already on its way.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		api.writeError(ctx, w, err)
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, convertResult(result))
}

// handleApplyFilters serves POST /devices/filters: the commit boundary for
// staged filter edits.
func (api *deviceAPI) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := api.session(w, r)
	if !ok {
		return
	}

	var request filterDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.writeError(ctx, w, errors.NewValidation("invalid filter draft body", err))
		return
	}

	draft, err := draftFromRequest(session, request)
	if err != nil {
		api.writeError(ctx, w, err)
		return
	}
	if err := session.ApplyDraft(draft); err != nil {
		api.writeError(ctx, w, err)
		return
	}

	result, err := session.Query(ctx)
	if err != nil {
		if stderrors.Is(err, service.ErrStaleResponse) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		api.writeError(ctx, w, err)
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, convertResult(result))
}

// handleResetFilters serves POST /devices/reset.
func (api *deviceAPI) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := api.session(w, r)
	if !ok {
		return
	}

	session.ResetFilters()

	result, err := session.Query(ctx)
	if err != nil {
		if stderrors.Is(err, service.ErrStaleResponse) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		api.writeError(ctx, w, err)
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, convertResult(result))
}

// handleBadges serves GET /devices/badges: the active-filter chips and
// enforced-default labels for the current session state.
func (api *deviceAPI) handleBadges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := api.session(w, r)
	if !ok {
		return
	}

	badges := session.Badges()
	views := make([]badgeView, len(badges))
	for i, badge := range badges {
		views[i] = badgeView(badge)
	}

	api.writeJSON(ctx, w, http.StatusOK, badgesResponse{
		Badges:           views,
		EnforcedDefaults: session.EnforcedDefaultLabels(),
	})
}

// handleRefreshScope serves POST /devices/refresh-scope: it re-resolves
// the principal's profile, re-runs scope enforcement on the live session,
// and serves the re-scoped view.
func (api *deviceAPI) handleRefreshScope(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.principal(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := api.sessions.RefreshScope(ctx, principal); err != nil {
		api.writeError(ctx, w, err)
		return
	}

	session, err := api.sessions.Session(ctx, principal)
	if err != nil {
		api.writeError(ctx, w, err)
		return
	}

	result, err := session.Query(ctx)
	if err != nil {
		if stderrors.Is(err, service.ErrStaleResponse) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		api.writeError(ctx, w, err)
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, convertResult(result))
}

// principal authenticates the request and stamps the principal onto the
// request context. On failure it writes the error response itself.
func (api *deviceAPI) principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	principal, err := api.auth.ParsePrincipal(ctx, token)
	if err != nil {
		api.writeError(ctx, w, err)
		return "", false
	}

	ctx = log.AppendCtx(ctx, slog.String(constants.PrincipalAttribute, principal))
	*r = *r.WithContext(ctx)
	return principal, true
}

// session resolves the authenticated principal's filter session. On
// failure it writes the error response itself.
func (api *deviceAPI) session(w http.ResponseWriter, r *http.Request) (*service.FilterSession, bool) {
	principal, ok := api.principal(w, r)
	if !ok {
		return nil, false
	}
	ctx := r.Context()

	session, err := api.sessions.Session(ctx, principal)
	if err != nil {
		api.writeError(ctx, w, err)
		return nil, false
	}
	return session, true
}

var filterParamNames = []string{
	"regionCodes", "cityCodes",
	"battery_expiry_date", "patch_expiry_date", "replacement_date", "last_inspection_date",
	"category_1", "category_2", "category_3",
	"search", "queryCriteria", "limit",
}

func hasFilterParams(params url.Values) bool {
	for _, name := range filterParamNames {
		if params.Has(name) {
			return true
		}
	}
	return false
}

// draftFromParams builds a draft purely from the URL: a deep link fully
// describes the filter state it wants, so nothing is seeded from the
// session.
func draftFromParams(params url.Values) (*service.FilterDraft, error) {
	draft := &service.FilterDraft{
		RegionCodes: params["regionCodes"],
		CityCodes:   params["cityCodes"],
	}

	windows := []struct {
		name string
		dest **model.ExpiryWindow
	}{
		{"battery_expiry_date", &draft.BatteryExpiry},
		{"patch_expiry_date", &draft.PadExpiry},
		{"replacement_date", &draft.ReplacementDue},
		{"last_inspection_date", &draft.LastInspection},
	}
	for _, w := range windows {
		raw := params.Get(w.name)
		if raw == "" {
			continue
		}
		window, err := model.ParseExpiryWindow(raw)
		if err != nil {
			return nil, errors.NewValidation("invalid expiry window", err)
		}
		*w.dest = &window
	}

	categories := []struct {
		name string
		dest **string
	}{
		{"category_1", &draft.Category1},
		{"category_2", &draft.Category2},
		{"category_3", &draft.Category3},
	}
	for _, c := range categories {
		if raw := params.Get(c.name); raw != "" {
			value := raw
			*c.dest = &value
		}
	}

	if raw := params.Get("search"); raw != "" {
		search := raw
		draft.Search = &search
	}

	if raw := params.Get("queryCriteria"); raw != "" {
		criteria, err := model.ParseQueryCriteria(raw)
		if err != nil {
			return nil, errors.NewValidation("invalid query criteria", err)
		}
		draft.QueryCriteria = &criteria
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || !constants.PageSizeAllowed(limit) {
			return nil, errors.NewValidation("invalid page size")
		}
		draft.Limit = &limit
	}

	return draft, nil
}

// draftFromRequest seeds from the applied state and overlays the body, so
// a partial body edits rather than replaces.
func draftFromRequest(session *service.FilterSession, request filterDraftRequest) (*service.FilterDraft, error) {
	draft := session.NewDraft()

	if request.RegionCodes != nil {
		draft.RegionCodes = request.RegionCodes
	}
	if request.CityCodes != nil {
		draft.CityCodes = request.CityCodes
	}

	windows := []struct {
		raw  *string
		dest **model.ExpiryWindow
	}{
		{request.BatteryExpiry, &draft.BatteryExpiry},
		{request.PadExpiry, &draft.PadExpiry},
		{request.ReplacementDue, &draft.ReplacementDue},
		{request.LastInspection, &draft.LastInspection},
	}
	for _, w := range windows {
		if w.raw == nil {
			continue
		}
		if *w.raw == "" {
			*w.dest = nil
			continue
		}
		window, err := model.ParseExpiryWindow(*w.raw)
		if err != nil {
			return nil, errors.NewValidation("invalid expiry window", err)
		}
		*w.dest = &window
	}

	if request.Category1 != nil {
		draft.Category1 = emptyToNil(request.Category1)
	}
	if request.Category2 != nil {
		draft.Category2 = emptyToNil(request.Category2)
	}
	if request.Category3 != nil {
		draft.Category3 = emptyToNil(request.Category3)
	}
	if request.Search != nil {
		draft.Search = emptyToNil(request.Search)
	}

	if request.QueryCriteria != nil {
		if *request.QueryCriteria == "" {
			draft.QueryCriteria = nil
		} else {
			criteria, err := model.ParseQueryCriteria(*request.QueryCriteria)
			if err != nil {
				return nil, errors.NewValidation("invalid query criteria", err)
			}
			draft.QueryCriteria = &criteria
		}
	}

	if request.Limit != nil {
		if !constants.PageSizeAllowed(*request.Limit) {
			return nil, errors.NewValidation("invalid page size")
		}
		draft.Limit = request.Limit
	}

	return draft, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func convertResult(result *model.DeviceSearchResult) devicesResponse {
	devices := make([]deviceView, len(result.Devices))
	for i, device := range result.Devices {
		devices[i] = deviceView{
			ID:                 device.ID,
			InstallLocation:    device.InstallLocation,
			Address:            device.Address,
			RegionCode:         device.RegionCode,
			CityCode:           device.CityCode,
			Category1:          device.Category1,
			Category2:          device.Category2,
			Category3:          device.Category3,
			ManagingAgency:     device.ManagingAgency,
			BatteryExpiryDate:  device.BatteryExpiryDate,
			PadExpiryDate:      device.PadExpiryDate,
			ReplacementDate:    device.ReplacementDate,
			LastInspectionDate: device.LastInspectionDate,
		}
	}

	return devicesResponse{
		Data: devices,
		Summary: summaryView{
			TotalCount:   result.Summary.TotalCount,
			ExpiringSoon: result.Summary.ExpiringSoon,
		},
		Pagination: paginationView{
			Page:    result.PageInfo.Page,
			Limit:   result.PageInfo.Limit,
			HasMore: result.PageInfo.HasMore,
		},
		Filters: filtersView{
			Available: result.Filters.Available,
			Applied:   result.Filters.Applied,
			Enforced:  result.Filters.Enforced.AppliedDefaults,
		},
	}
}

func (api *deviceAPI) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (api *deviceAPI) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		validation  errors.Validation
		denied      errors.AccessDenied
		notFound    errors.NotFound
		unavailable errors.ServiceUnavailable
	)
	switch {
	case stderrors.As(err, &validation):
		status = http.StatusBadRequest
	case stderrors.As(err, &denied):
		status = http.StatusForbidden
	case stderrors.As(err, &notFound):
		status = http.StatusNotFound
	case stderrors.As(err, &unavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err, "status", status)
	} else {
		slog.DebugContext(ctx, "request rejected", "error", err, "status", status)
	}

	api.writeJSON(ctx, w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.RequestIDFromContext(ctx),
	})
}
