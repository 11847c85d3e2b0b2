/*
Package handler provides the HTTP handlers and routing setup for the hub.

This file contains the websocket upgrade handler. Authentication happens
inside the session protocol, not here; the upgrade is only rate limited per
client IP.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"prismhub/internal/pkg/errs"
	"prismhub/internal/pkg/limiter"
	"prismhub/internal/pkg/logx"
	"prismhub/internal/pkg/resp"
)

// HandleWebSocket upgrades the connection and hands it to the hub, blocking
// until the session ends.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket upgrade rejected: rate limit exceeded", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		deps.Hub.ServeConn(r.Context(), conn)
	}
}
