// Package analysis asks an external sleep-analysis job to process a time window.
package analysis

import (
	"context"
	"time"

	"controlling_pod/internal/models"
)

// Default window around "now" handed to the analyzer after power-off.
const (
	DefaultLookback  = 12 * time.Hour
	DefaultLookahead = time.Hour
)

// Trigger starts analysis for side over [start, end]. Implementations must not
// block on the analysis itself.
type Trigger interface {
	Analyze(ctx context.Context, side models.Side, start, end time.Time) error
}

// Window returns [now-lookback, now+lookahead].
func Window(now time.Time, lookback, lookahead time.Duration) (time.Time, time.Time) {
	return now.Add(-lookback), now.Add(lookahead)
}

// Request is the payload every trigger sends.
type Request struct {
	Side      models.Side `json:"side"`
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
}

func newRequest(side models.Side, start, end time.Time) Request {
	return Request{
		Side:      side,
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end.UTC().Format(time.RFC3339),
	}
}

// Nop ignores every request.
type Nop struct{}

func (Nop) Analyze(context.Context, models.Side, time.Time, time.Time) error { return nil }
