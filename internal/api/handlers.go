package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/render"
)

const defaultAuditLimit = 50

func (a *API) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := a.svc.Trips(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if trips == nil {
		trips = []string{}
	}
	writeJSON(w, map[string][]string{"trips": trips})
}

func (a *API) handleBalances(w http.ResponseWriter, r *http.Request) {
	in := money.Currency(strings.ToUpper(r.URL.Query().Get("in")))
	report, err := a.svc.Balances(r.Context(), mux.Vars(r)["trip"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"report": report,
		"text":   render.Balances(report),
	})
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	trip := mux.Vars(r)["trip"]
	sum, err := a.svc.Summary(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := a.svc.Balances(r.Context(), trip, "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"summary": sum,
		"text":    render.Summary(sum, report),
	})
}

func (a *API) handleParticipants(w http.ResponseWriter, r *http.Request) {
	who, err := a.svc.Who(r.Context(), mux.Vars(r)["trip"])
	if err != nil {
		writeError(w, err)
		return
	}
	if who == nil {
		who = []string{}
	}
	writeJSON(w, map[string][]string{"participants": who})
}

func (a *API) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := a.svc.Audit(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, map[string][]models.AuditEntry{"entries": entries})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNoActiveTrip):
		http.Error(w, "trip not found", http.StatusNotFound)
	default:
		if de, ok := ledger.IsDomainError(err); ok {
			http.Error(w, de.Code, http.StatusBadRequest)
			return
		}
		slog.Error("API request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
