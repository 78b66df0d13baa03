package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Period selects the rollup window.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown period %q", model.ErrValidation, s)
}

// Rollup is an aggregate over a date window.
type Rollup struct {
	Period        Period              `json:"period"`
	From          string              `json:"from"`
	To            string              `json:"to"`
	Days          int                 `json:"days"`
	TotalWaterMl  float64             `json:"totalWaterMl"`
	AvgWaterMl    float64             `json:"avgWaterMl"`
	TotalStudyMin float64             `json:"totalStudyMinutes"`
	AvgStudyMin   float64             `json:"avgStudyMinutes"`
	AvgScore      float64             `json:"avgScore"`
	WaterGoalDays int                 `json:"waterGoalDays"`
	StudyGoalDays int                 `json:"studyGoalDays"`
	Entries       []model.LedgerEntry `json:"entries"`
}

// Window returns the inclusive date range for period ending at or containing ref.
func Window(period Period, ref string) (string, string, error) {
	t, err := time.Parse(strfmt.RFC3339FullDate, ref)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid date %q", model.ErrValidation, ref)
	}
	switch period {
	case Daily:
		return ref, ref, nil
	case Weekly:
		return t.AddDate(0, 0, -6).Format(strfmt.RFC3339FullDate), ref, nil
	case Monthly:
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		return first.Format(strfmt.RFC3339FullDate), last.Format(strfmt.RFC3339FullDate), nil
	}
	return "", "", fmt.Errorf("%w: unknown period %q", model.ErrValidation, period)
}

// Summarize rolls up ledger entries inside the period window. Averages are over
// materialized days only.
func Summarize(entries []model.LedgerEntry, period Period, ref string, g model.Goals) (Rollup, error) {
	from, to, err := Window(period, ref)
	if err != nil {
		return Rollup{}, err
	}
	r := Rollup{Period: period, From: from, To: to, Entries: []model.LedgerEntry{}}
	scoreSum := 0.0
	for _, e := range entries {
		if e.DateKey < from || e.DateKey > to {
			continue
		}
		r.Entries = append(r.Entries, e.Clone())
		r.Days++
		r.TotalWaterMl += e.Summary.WaterMl
		r.TotalStudyMin += e.Summary.CountedTotal
		scoreSum += e.Summary.Score
		if g.WaterMl > 0 && e.Summary.WaterMl >= g.WaterMl {
			r.WaterGoalDays++
		}
		if g.StudyMinutes > 0 && e.Summary.CountedTotal >= g.StudyMinutes {
			r.StudyGoalDays++
		}
	}
	if r.Days > 0 {
		n := float64(r.Days)
		r.AvgWaterMl = math.Round(r.TotalWaterMl / n)
		r.AvgStudyMin = math.Round(r.TotalStudyMin/n*10) / 10
		r.AvgScore = math.Round(scoreSum / n)
	}
	return r, nil
}
