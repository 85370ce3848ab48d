package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/cors"

	"github.com/mmynk/clawback/internal/api"
	"github.com/mmynk/clawback/internal/auth"
	"github.com/mmynk/clawback/internal/config"
	"github.com/mmynk/clawback/internal/fx"
	"github.com/mmynk/clawback/internal/metrics"
	"github.com/mmynk/clawback/internal/middleware"
	"github.com/mmynk/clawback/internal/mirror"
	"github.com/mmynk/clawback/internal/parser"
	"github.com/mmynk/clawback/internal/rpc"
	"github.com/mmynk/clawback/internal/service"
	"github.com/mmynk/clawback/internal/storage/sqlite"
)

// NewRate builds the configured exchange-rate source.
func NewRate(cfg *config.Config) (fx.RateFunc, error) {
	switch cfg.FX.Provider {
	case config.FXIdentity:
		return fx.Identity, nil
	case config.FXStatic:
		table, err := fx.NewStatic(cfg.FX.StaticRates)
		if err != nil {
			return nil, fmt.Errorf("fx.static_rates: %w", err)
		}
		return table.Rate, nil
	case config.FXFrankfurter:
		remote := fx.NewFrankfurter(cfg.FX.BaseURL, cfg.FX.Timeout)
		return fx.NewCached(remote.Rate, cfg.FX.CacheTTL).Rate, nil
	}
	return nil, fmt.Errorf("unknown fx provider %q", cfg.FX.Provider)
}

// NewChatService wires a ChatService from config.
func NewChatService(cfg *config.Config, store *sqlite.SQLiteStore, m *metrics.Metrics) (*service.ChatService, error) {
	rate, err := NewRate(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewChatService(store,
		service.WithParser(parser.New(cfg.Parser.WakeWords...)),
		service.WithRate(rate),
		service.WithMirror(mirror.NewLog(slog.Default().With("component", "mirror"))),
		service.WithMetrics(m),
		service.WithTTL(cfg.Confirm.TTL),
		service.WithDefaultBase(cfg.Trips.DefaultBaseCurrency),
	), nil
}

// NewHandler mounts the Connect service, the REST views, /metrics and
// /healthz on one handler. Auth is enabled when a JWT secret is configured.
func NewHandler(cfg *config.Config, svc *service.ChatService, m *metrics.Metrics) http.Handler {
	interceptors := []connect.Interceptor{middleware.LoggingInterceptor()}
	var jwtManager *auth.JWTManager
	if cfg.Auth.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager))
	} else {
		slog.Warn("No JWT secret configured, bridge auth is disabled")
	}

	mux := http.NewServeMux()

	rpcServer := rpc.NewServer(svc, rpc.Options{
		RatePerSecond: cfg.Server.RateLimit.PerSecond,
		Burst:         cfg.Server.RateLimit.Burst,
	})
	rpcPath, rpcHandler := rpc.NewChatServiceHandler(rpcServer, connect.WithInterceptors(interceptors...))
	mux.Handle(rpcPath, rpcHandler)

	mux.Handle("/api/", api.New(svc, jwtManager))
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
	})
	return loggingMiddleware(c.Handler(mux))
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// openService opens the store and builds a service with a fresh registry.
// The caller closes the store.
func openService(cfg *config.Config) (*sqlite.SQLiteStore, *service.ChatService, *metrics.Metrics, error) {
	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	m := metrics.New()
	svc, err := NewChatService(cfg, store, m)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return store, svc, m, nil
}
