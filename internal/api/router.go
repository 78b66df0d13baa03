package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/api/recovery"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/tracker"
)

// NewRouter registers every route of the ledger service. metrics may be nil.
func NewRouter(t *tracker.Tracker, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler()
	ledgerHandler := NewLedgerHandler(t)

	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}

	// Selection
	router.HandleFunc("/api/selection", ledgerHandler.PutSelection).Methods("PUT")
	router.HandleFunc("/api/selection", ledgerHandler.GetSelection).Methods("GET")
	router.HandleFunc("/api/selection/reload", ledgerHandler.Reload).Methods("POST")

	// Derived view of the selected day
	router.HandleFunc("/api/summary", ledgerHandler.GetSummary).Methods("GET")
	router.HandleFunc("/api/day", ledgerHandler.GetDay).Methods("GET")
	router.HandleFunc("/api/day/events/{eventId}/annotation", ledgerHandler.PutAnnotation).Methods("PUT")

	// Ledger
	router.HandleFunc("/api/ledger", ledgerHandler.ListLedger).Methods("GET")
	router.HandleFunc("/api/ledger/{date}", ledgerHandler.GetEntry).Methods("GET")
	router.HandleFunc("/api/ledger/{date}", ledgerHandler.DeleteEntry).Methods("DELETE")
	router.HandleFunc("/api/ledger/{date}/feedback", ledgerHandler.PutFeedback).Methods("PUT")

	router.HandleFunc("/api/goals", ledgerHandler.GetGoals).Methods("GET")
	router.HandleFunc("/api/goals", ledgerHandler.PutGoals).Methods("PUT")
	router.HandleFunc("/api/rollups/{period}", ledgerHandler.GetRollup).Methods("GET")
	router.HandleFunc("/api/rules/reload", ledgerHandler.ReloadRules).Methods("POST")

	return router
}
