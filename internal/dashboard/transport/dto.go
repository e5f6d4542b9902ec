// Package transport holds the HTTP request and response shapes of the
// dashboard module.
package transport

import (
	"encoding/json"

	"dashboard_backend/internal/dashboard/repository"
)

// DashboardQuery selects one dashboard via query string.
type DashboardQuery struct {
	Office string `form:"office" validate:"omitempty,max=64"`
	Period string `form:"period" validate:"omitempty,dashboard_period"`
}

// DashboardRequest selects one dashboard via JSON body.
type DashboardRequest struct {
	Office string `json:"office" validate:"omitempty,max=64"`
	Period string `json:"period" validate:"omitempty,dashboard_period"`
}

// OfficeResponse is one office of the registry listing.
type OfficeResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// OfficeListResponse lists the selectable offices.
type OfficeListResponse struct {
	Offices []OfficeResponse `json:"offices"`
	AllID   string           `json:"allId"`
	Periods []string         `json:"periods"`
}

// PreferenceKeyParam is the path parameter of a preference.
type PreferenceKeyParam struct {
	Key string `uri:"key" validate:"required,max=64,printascii"`
}

// UpsertPreferenceRequest stores an opaque JSON value.
type UpsertPreferenceRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

// PreferenceListResponse lists the preferences of the caller.
type PreferenceListResponse struct {
	Items []repository.Preference `json:"items"`
}

// SnapshotListQuery pages the snapshot index.
type SnapshotListQuery struct {
	Office string `form:"office" validate:"omitempty,max=64"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// SnapshotListResponse lists archived snapshots.
type SnapshotListResponse struct {
	Items []repository.Snapshot `json:"items"`
}
