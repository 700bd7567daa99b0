/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
upgrading the HTTP connection to WebSocket, and handing the connection to the session
coordinator. An optional resume token restores a previously held session identity.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"stamprally/internal/app/session"
	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/limiter"
	"stamprally/internal/pkg/logx"
	"stamprally/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		resumeToken := r.URL.Query().Get("resume")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection established", "ip", ip, "resuming", resumeToken != "")

		if err := session.Serve(r.Context(), deps.Coordinator, conn, resumeToken); err != nil {
			logx.Error(err, "WebSocket session ended before attach completed")
		}
	}
}
