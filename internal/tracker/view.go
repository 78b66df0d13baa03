package tracker

import (
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/aggregate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// DomainView is the derived state of one domain for the selected day.
type DomainView struct {
	Measure       string             `json:"measure"`
	CountedTotal  float64            `json:"countedTotal"`
	ExcludedTotal float64            `json:"excludedTotal"`
	PerCategory   map[string]float64 `json:"perCategory"`
	Sessions      []model.Session    `json:"sessions"`
}

// DayView holds the sessions of every domain for one date.
type DayView struct {
	DateKey    string     `json:"date"`
	LoadFailed bool       `json:"loadFailed,omitempty"`
	Water      DomainView `json:"water"`
	Book       DomainView `json:"book"`
	Laptop     DomainView `json:"laptop"`
}

// Status is a point-in-time report of the tracker.
type Status struct {
	DateKey      string             `json:"date"`
	State        string             `json:"state"`
	LoadFailed   bool               `json:"loadFailed"`
	LoadError    string             `json:"loadError,omitempty"`
	Dirty        bool               `json:"dirty"`
	PersistError string             `json:"persistError,omitempty"`
	Summary      model.DailySummary `json:"summary"`
	Goals        model.Goals        `json:"goals"`
}

func domainView(d Domain, r aggregate.Result) DomainView {
	sessions := r.Sessions
	if sessions == nil {
		sessions = []model.Session{}
	}
	per := r.PerCategory
	if per == nil {
		per = map[string]float64{}
	}
	return DomainView{
		Measure:       d.Measure.String(),
		CountedTotal:  round1(r.CountedTotal),
		ExcludedTotal: round1(r.ExcludedTotal),
		PerCategory:   per,
		Sessions:      sessions,
	}
}

func emptyView(dateKey string) DayView {
	empty := func() DomainView {
		return DomainView{PerCategory: map[string]float64{}, Sessions: []model.Session{}}
	}
	return DayView{DateKey: dateKey, Water: empty(), Book: empty(), Laptop: empty()}
}

// withLabels returns day with the manual labels of date applied over event
// annotations. The input slices are not modified.
func withLabels(day model.DayEvents, d Domains, date string, labels labelSet) model.DayEvents {
	if len(labels) == 0 {
		return day
	}
	apply := func(domain string, evs []model.ActivityEvent) []model.ActivityEvent {
		var out []model.ActivityEvent
		for i, e := range evs {
			if e.ID == "" {
				continue
			}
			label, ok := labels[labelKey{date: date, domain: domain, id: e.ID}]
			if !ok || label == e.Annotation {
				continue
			}
			if out == nil {
				out = append([]model.ActivityEvent(nil), evs...)
			}
			out[i].Annotation = label
		}
		if out == nil {
			return evs
		}
		return out
	}
	return model.DayEvents{
		Water:  apply(d.Water.Name, day.Water),
		Book:   apply(d.Book.Name, day.Book),
		Laptop: apply(d.Laptop.Name, day.Laptop),
	}
}
