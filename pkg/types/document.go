// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Outcome records what happened to a single document during a run.
type Outcome string

const (
	// OutcomeConverted means the rasterizer produced the page artifacts.
	OutcomeConverted Outcome = "converted"
	// OutcomeSkipped means a page-1 artifact already existed in the active
	// or archive area.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeBusy means another worker held the document's claim.
	OutcomeBusy Outcome = "busy"
	// OutcomeFailed means the rasterizer returned an error or a non-zero
	// exit status.
	OutcomeFailed Outcome = "failed"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeConverted, OutcomeSkipped, OutcomeBusy, OutcomeFailed:
		return true
	}
	return false
}

// LedgerEntry is one recorded document outcome.
type LedgerEntry struct {
	ID         int64     `json:"id" yaml:"id"`
	RunID      string    `json:"run_id" yaml:"run_id"`
	Document   string    `json:"document" yaml:"document"`
	Base       string    `json:"base" yaml:"base"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Host       string    `json:"host" yaml:"host"`
	PID        int       `json:"pid" yaml:"pid"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the document took to process.
func (e LedgerEntry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}
