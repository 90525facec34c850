/*
Package handler provides the HTTP handlers and routing setup for the Lemuria server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"lemuria/internal/pkg/auth/jwt"
	"lemuria/internal/pkg/limiter"
	"lemuria/internal/pkg/logx"
	"lemuria/internal/pkg/resp"
)

const (
	LoginRate  = 0.2
	LoginBurst = 5
	WSRate     = 0.5
	WSBurst    = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
// The limiters' background sweeps stop when ctx is done.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(LoginRate), LoginBurst)
	wsLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(WSRate), WSBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger("/health", "/api/v1/world/"))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":  "ok",
			"service": "Lemuria Server",
			"online":  len(deps.Presence.ConnectedUsers()),
		})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(loginLimiter.Middleware).Post("/", HandleLogin(deps))
			auth.Delete("/", HandleLogout(deps))
			auth.Get("/", HandleSession(deps))
			auth.Post("/renew", HandleRenew(deps))
		})

		api.Route("/world", func(wr chi.Router) {
			wr.Get("/", HandleListWorlds(deps))
			wr.Get("/{id}", HandleGetWorld(deps))
			wr.Get("/{id}/props", HandleGetProps(deps))
			wr.Get("/{id}/terrain", HandleGetTerrain(deps))
		})

		api.With(wsLimiter.Middleware).Get("/ws", HandleWebSocket(deps.Presence, wsUpgrader))
	})

	return r
}
