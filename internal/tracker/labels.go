package tracker

import (
	"fmt"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/appstate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Upstream ids are row indexes per feed and day, so a label is only
// meaningful together with its date and domain.
type labelKey struct {
	date   string
	domain string
	id     string
}

type labelSet map[labelKey]string

// labelSnapshot is the app-state form: date -> domain -> event id -> label.
type labelSnapshot map[string]map[string]map[string]string

// set stores label, or removes the key when label is empty. It reports
// whether anything changed.
func (s labelSet) set(k labelKey, label string) bool {
	old, ok := s[k]
	if label == "" {
		if !ok {
			return false
		}
		delete(s, k)
		return true
	}
	if ok && old == label {
		return false
	}
	s[k] = label
	return true
}

// dropDate removes every label of date.
func (s labelSet) dropDate(date string) bool {
	dropped := false
	for k := range s {
		if k.date == date {
			delete(s, k)
			dropped = true
		}
	}
	return dropped
}

func (s labelSet) snapshot() labelSnapshot {
	out := labelSnapshot{}
	for k, v := range s {
		if out[k.date] == nil {
			out[k.date] = map[string]map[string]string{}
		}
		if out[k.date][k.domain] == nil {
			out[k.date][k.domain] = map[string]string{}
		}
		out[k.date][k.domain][k.id] = v
	}
	return out
}

func restoreLabels(state *appstate.Store) labelSet {
	s := labelSet{}
	if state == nil {
		return s
	}
	var snap labelSnapshot
	if ok, err := state.Decode(appstate.KeyLabels, &snap); !ok || err != nil {
		return s
	}
	for date, domains := range snap {
		if model.ValidateDateKey(date) != nil {
			continue
		}
		for domain, ids := range domains {
			for id, label := range ids {
				if id != "" && label != "" {
					s[labelKey{date: date, domain: domain, id: id}] = label
				}
			}
		}
	}
	return s
}

// resolveDomain picks the domain of eventID on day. An empty domain is
// accepted when the id occurs in exactly one domain.
func (d Domains) resolveDomain(day model.DayEvents, domain, eventID string) (string, error) {
	feeds := map[string][]model.ActivityEvent{
		d.Water.Name:  day.Water,
		d.Book.Name:   day.Book,
		d.Laptop.Name: day.Laptop,
	}
	if domain != "" {
		evs, ok := feeds[domain]
		if !ok {
			return "", fmt.Errorf("%w: unknown domain %q", model.ErrValidation, domain)
		}
		if !containsID(evs, eventID) {
			return "", fmt.Errorf("%s event %s: %w", domain, eventID, model.ErrNotFound)
		}
		return domain, nil
	}
	var found []string
	for _, name := range []string{d.Water.Name, d.Book.Name, d.Laptop.Name} {
		if containsID(feeds[name], eventID) {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("event %s: %w", eventID, model.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%w: event %s exists in %v; a domain is required", model.ErrValidation, eventID, found)
}

func containsID(evs []model.ActivityEvent, id string) bool {
	for _, e := range evs {
		if e.ID == id {
			return true
		}
	}
	return false
}
