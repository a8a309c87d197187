// Package api serves recorded run history and pending journal entries as JSON.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/mkdgcheck/internal/journal"
	"github.com/kalambet/mkdgcheck/internal/storage"
)

const maxListLimit = 500

// HistoryStore is the read side of run history. *storage.Store implements it.
type HistoryStore interface {
	ListRuns(limit int) ([]storage.Run, error)
	GetRun(id string) (storage.Run, error)
	RunResults(runID string) ([]storage.ScenarioResult, error)
}

// PendingLister lists snapshots that were never restored. *journal.Journal implements it.
type PendingLister interface {
	Pending() ([]journal.Entry, error)
}

type runDetail struct {
	Run     storage.Run              `json:"run"`
	Results []storage.ScenarioResult `json:"results"`
}

// NewHistoryHandler returns the read-only history API. pending may be nil, in
// which case /pending is not routed. A non-empty token enables bearer auth.
func NewHistoryHandler(store HistoryStore, pending PendingLister, token string) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Group(func(r chi.Router) {
		if token != "" {
			r.Use(BearerAuth(token))
		}
		r.Get("/runs", handleListRuns(store))
		r.Get("/runs/{id}", handleGetRun(store))
		if pending != nil {
			r.Get("/pending", handlePending(pending))
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListRuns(store HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxListLimit {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be an integer between 1 and %d", maxListLimit)
				return
			}
			limit = n
		}

		runs, err := store.ListRuns(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing runs: %v", err)
			return
		}
		if runs == nil {
			runs = []storage.Run{}
		}
		writeJSON(w, runs)
	}
}

func handleGetRun(store HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		run, err := store.GetRun(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "run %q not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading run: %v", err)
			return
		}

		results, err := store.RunResults(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading results: %v", err)
			return
		}
		if results == nil {
			results = []storage.ScenarioResult{}
		}
		writeJSON(w, runDetail{Run: run, Results: results})
	}
}

func handlePending(j PendingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := j.Pending()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading journal: %v", err)
			return
		}
		if entries == nil {
			entries = []journal.Entry{}
		}
		writeJSON(w, entries)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
