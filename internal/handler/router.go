/*
Package handler provides the HTTP handlers and routing setup for the hub.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting before delegating to the websocket upgrade, the public read
endpoints, and the secret-protected operations.
*/
package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"prismhub/internal/pkg/errs"
	"prismhub/internal/pkg/limiter"
	"prismhub/internal/pkg/logx"
	"prismhub/internal/pkg/resp"
)

const (
	// Upgrade attempts allowed per IP: one every five seconds, burst 5.
	UpgradeRate  = 0.2
	UpgradeBurst = 5

	// Admin API requests allowed per IP per second, burst 20.
	AdminRate  = 5
	AdminBurst = 20
)

// Router sets up the chi routing table for the application.
func Router(deps *AppDeps) http.Handler {
	upgradeLimiter := limiter.NewIPRateLimiter(rate.Limit(UpgradeRate), UpgradeBurst)
	adminLimiter := limiter.NewIPRateLimiter(rate.Limit(AdminRate), AdminBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			// Game clients send no Origin header; only browser cross-origin
			// requests are filtered.
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			_, ok := allowedOrigins[origin]
			return ok
		},
	}

	corsAllowedOrigins := deps.Config.AllowedOrigins
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{"status": "ok"})
	})

	r.Get("/metrics", promhttp.HandlerFor(
		deps.Metrics.Registry,
		promhttp.HandlerOpts{},
	).ServeHTTP)

	r.Get("/cosmetics", HandleCosmetics(deps))

	r.With(requireSecret(deps.Config.APISecret)).
		Post("/broadcast", HandleBroadcast(deps))

	r.Route("/api/admin", func(admin chi.Router) {
		admin.Use(adminLimiter.Middleware)
		admin.Use(requireSecret(deps.Config.APISecret))

		admin.Get("/users", HandleUserStats(deps))
		admin.Patch("/users/{uuid}/flags", HandleSetFlags(deps))
		admin.Post("/users/{uuid}/link", HandleLinkDiscord(deps))

		admin.Get("/irc-blacklist", HandleListBlacklist(deps))
		admin.Put("/irc-blacklist/{uuid}", HandleBlacklist(deps, true))
		admin.Delete("/irc-blacklist/{uuid}", HandleBlacklist(deps, false))

		admin.Post("/cosmetics", HandlePutCosmetic(deps))
		admin.Delete("/cosmetics/{id}", HandleDeleteCosmetic(deps))
	})

	r.Get("/ws", HandleWebSocket(deps, upgrader, upgradeLimiter))

	return r
}

// requireSecret rejects requests whose bearer token does not match the
// configured API secret.
func requireSecret(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
