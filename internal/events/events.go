// Package events provides the in-process event bus used to notify the
// presentation layer that derived analytics must be recomputed.
package events

import "time"

// EventType identifies a published event
type EventType string

const (
	// PositionsImported fires after a CSV import session replaces the
	// active position set.
	PositionsImported EventType = "positions_imported"
	// AnalysisInvalidated fires when derived values (DTE, cached curves)
	// must be recomputed even though positions did not change.
	AnalysisInvalidated EventType = "analysis_invalidated"
	// BackupCompleted fires after a successful cloud backup upload.
	BackupCompleted EventType = "backup_completed"
)

// EventData is implemented by all typed event payloads
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// Event is a single published event with its payload
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// PositionsImportedData contains data for PositionsImported events
type PositionsImportedData struct {
	SessionID string `json:"session_id"`
	Positions int    `json:"positions"`
	Tickers   int    `json:"tickers"`
}

// EventType returns the event type for PositionsImportedData
func (d *PositionsImportedData) EventType() EventType {
	return PositionsImported
}

// AnalysisInvalidatedData contains data for AnalysisInvalidated events
type AnalysisInvalidatedData struct {
	Reason string `json:"reason"`
}

// EventType returns the event type for AnalysisInvalidatedData
func (d *AnalysisInvalidatedData) EventType() EventType {
	return AnalysisInvalidated
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}
