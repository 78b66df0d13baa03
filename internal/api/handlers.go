package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/api/respond"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/api/validate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/coordinator"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/tracker"
)

// LedgerHandler exposes the tracker over HTTP.
type LedgerHandler struct {
	tracker *tracker.Tracker
}

func NewLedgerHandler(t *tracker.Tracker) *LedgerHandler {
	return &LedgerHandler{tracker: t}
}

// SelectionRequest is the body of PUT /api/selection.
type SelectionRequest struct {
	Date string `json:"date"`
	Wait bool   `json:"wait,omitempty"`
}

// PutSelection PUT /api/selection
// Without wait the load continues in the background and 202 is returned.
func (h *LedgerHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.DateKey(req.Date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	flight, err := h.tracker.Select(req.Date)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	h.finishFlight(w, r, flight, req.Wait)
}

// GetSelection GET /api/selection
func (h *LedgerHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.tracker.Status())
}

// Reload POST /api/selection/reload?wait=true
func (h *LedgerHandler) Reload(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	flight, err := h.tracker.Reload()
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	h.finishFlight(w, r, flight, wait)
}

func (h *LedgerHandler) finishFlight(w http.ResponseWriter, r *http.Request, f *tracker.Flight, wait bool) {
	if !wait {
		respond.WriteJSON(w, http.StatusAccepted, h.tracker.Status())
		return
	}
	res, err := f.Wait(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	if res.State == coordinator.Applied && res.Err != nil {
		respond.WriteDomainError(w, fmt.Errorf("day %s: %w: %v", res.Key, model.ErrLoadFailed, res.Err))
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.tracker.Status())
}

// GetSummary GET /api/summary
// A day whose load failed answers 502 until a reload succeeds.
func (h *LedgerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s := h.tracker.Summary()
	if s.DateKey == "" {
		respond.WriteNotFound(w, "no date selected")
		return
	}
	if err := h.tracker.LoadErr(); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, s)
}

// GetDay GET /api/day
func (h *LedgerHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	v, err := h.tracker.Day()
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, v)
}

// AnnotationRequest is the body of PUT /api/day/events/{eventId}/annotation.
// Domain (water, book, laptop) is required when the id occurs in several feeds.
type AnnotationRequest struct {
	Label  string `json:"label"`
	Domain string `json:"domain,omitempty"`
}

// PutAnnotation PUT /api/day/events/{eventId}/annotation
func (h *LedgerHandler) PutAnnotation(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	var req AnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Label(req.Label); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	s, err := h.tracker.Annotate(r.Context(), req.Domain, eventID, req.Label)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, s)
}

// ListLedger GET /api/ledger
func (h *LedgerHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	entries := h.tracker.Ledger()
	respond.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

// GetEntry GET /api/ledger/{date}
func (h *LedgerHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if err := validate.DateKey(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	e, err := h.tracker.Entry(date)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, e)
}

// DeleteEntry DELETE /api/ledger/{date}
func (h *LedgerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if err := validate.DateKey(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.tracker.DeleteEntry(r.Context(), date); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutFeedback PUT /api/ledger/{date}/feedback
func (h *LedgerHandler) PutFeedback(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.DateKey(date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Feedback(req.Feedback); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	e, err := h.tracker.SetFeedback(r.Context(), date, req.Feedback)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, e)
}

// GetGoals GET /api/goals
func (h *LedgerHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.tracker.Goals())
}

// PutGoals PUT /api/goals
func (h *LedgerHandler) PutGoals(w http.ResponseWriter, r *http.Request) {
	var g model.Goals
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Goals(g); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.tracker.SetGoals(r.Context(), g); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.tracker.Goals())
}

// GetRollup GET /api/rollups/{period}?date=
func (h *LedgerHandler) GetRollup(w http.ResponseWriter, r *http.Request) {
	period := mux.Vars(r)["period"]
	ro, err := h.tracker.Rollup(period, r.URL.Query().Get("date"))
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ro)
}

// ReloadRules POST /api/rules/reload
func (h *LedgerHandler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.tracker.ReloadRules()
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"version": rules.Version, "status": h.tracker.Status()})
}
