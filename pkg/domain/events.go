package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventValidate EventType = "validate"
	EventRoute    EventType = "route"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id,omitempty"`
}

// ValidateEvent is emitted after a flow was validated.
type ValidateEvent struct {
	EventBase
	NodeCount int               `json:"node_count"`
	Issues    []ValidationIssue `json:"issues"`
	Duration  time.Duration     `json:"duration"`
}

// RouteEvent is emitted after connections were routed for a flow.
type RouteEvent struct {
	EventBase
	NodeCount       int           `json:"node_count"`
	ConnectionCount int           `json:"connection_count"`
	Duration        time.Duration `json:"duration"`
}

// AnalysisHooks lets hosts observe analysis calls (logging, metrics).
// Any field may be nil.
type AnalysisHooks struct {
	OnValidate func(ctx context.Context, e *ValidateEvent)
	OnRoute    func(ctx context.Context, e *RouteEvent)
}
