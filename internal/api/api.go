// Package api serves read-only trip views as JSON for dashboards and scripts.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/clawback/internal/auth"
	"github.com/mmynk/clawback/internal/middleware"
	"github.com/mmynk/clawback/internal/service"
)

type API struct {
	router *mux.Router
	svc    *service.ChatService
}

// New builds the router. When jwtManager is nil the endpoints are open.
func New(svc *service.ChatService, jwtManager *auth.JWTManager) *API {
	a := &API{
		router: mux.NewRouter(),
		svc:    svc,
	}
	a.setupRoutes(jwtManager)
	return a
}

func (a *API) setupRoutes(jwtManager *auth.JWTManager) {
	protected := a.router.PathPrefix("/api").Subrouter()
	if jwtManager != nil {
		protected.Use(middleware.RequireHTTPAuth(jwtManager))
	}

	protected.HandleFunc("/trips", a.handleListTrips).Methods("GET")
	protected.HandleFunc("/trips/{trip}/balances", a.handleBalances).Methods("GET")
	protected.HandleFunc("/trips/{trip}/summary", a.handleSummary).Methods("GET")
	protected.HandleFunc("/trips/{trip}/participants", a.handleParticipants).Methods("GET")
	protected.HandleFunc("/audit", a.handleAudit).Methods("GET")
}

// ServeHTTP lets the API be mounted on any mux.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}
