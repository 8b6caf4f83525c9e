package models

import "time"

// Job event types.
const (
	EventJobSucceeded = "JOB_SUCCEEDED"
	EventJobFailed    = "JOB_FAILED"
	EventReconciled   = "RECONCILED"
	EventAnalysis     = "ANALYSIS"
)

// JobEvent is a single entry of the job log.
type JobEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Key         string    `json:"key,omitempty"`
	Side        string    `json:"side,omitempty"`
	Description string    `json:"description"`
	Error       string    `json:"error,omitempty"`
	Metadata    any       `json:"metadata,omitempty"`
}
