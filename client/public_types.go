package client

import (
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/ledger"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/tracker"
)

// Re-export wire types so callers need a single import.
type (
	Summary     = model.DailySummary
	LedgerEntry = model.LedgerEntry
	Goals       = model.Goals
	Session     = model.Session
	Status      = tracker.Status
	DayView     = tracker.DayView
	Rollup      = ledger.Rollup
)

type selectionRequest struct {
	Date string `json:"date"`
	Wait bool   `json:"wait,omitempty"`
}

type annotationRequest struct {
	Label  string `json:"label"`
	Domain string `json:"domain,omitempty"`
}
