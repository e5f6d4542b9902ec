// Package events defines the dashboard domain events. The bus itself lives in
// platform/events and is aliased here so modules import a single package.
package events

import (
	"time"

	"dashboard_backend/platform/events"
	"dashboard_backend/platform/logger"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// DashboardFallbackUsed is published when no CRM source could be fetched and
// the illustrative payload was served instead.
type DashboardFallbackUsed struct {
	BaseEvent
	Office        string   `json:"office"`
	Period        string   `json:"period"`
	FailedSources []string `json:"failedSources"`
	RetryQueued   bool     `json:"retryQueued"`
}

func (e DashboardFallbackUsed) EventName() string { return "dashboard.fallback.used" }

// DashboardDegraded is published when the summary failed and only part of the
// detail collections were fetched.
type DashboardDegraded struct {
	BaseEvent
	Office          string   `json:"office"`
	OfficeName      string   `json:"officeName"`
	Period          string   `json:"period"`
	FailedSources   []string `json:"failedSources"`
	AlertRecipients []string `json:"alertRecipients"`
}

func (e DashboardDegraded) EventName() string { return "dashboard.degraded" }

// CriticalAlertRaised is published once per office, alert and dedupe window
// when a live payload carries a critical alert.
type CriticalAlertRaised struct {
	BaseEvent
	Office          string    `json:"office"`
	OfficeName      string    `json:"officeName"`
	Period          string    `json:"period"`
	AlertID         string    `json:"alertId"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Action          string    `json:"action"`
	RaisedAt        time.Time `json:"raisedAt"`
	AlertRecipients []string  `json:"alertRecipients"`
}

func (e CriticalAlertRaised) EventName() string { return "dashboard.alert.critical" }

// DashboardSnapshotArchived is published after a payload was written to
// object storage.
type DashboardSnapshotArchived struct {
	BaseEvent
	Office    string `json:"office"`
	Period    string `json:"period"`
	ObjectKey string `json:"objectKey"`
	Source    string `json:"source"`
}

func (e DashboardSnapshotArchived) EventName() string { return "dashboard.snapshot.archived" }
