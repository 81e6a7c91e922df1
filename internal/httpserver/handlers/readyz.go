package handlers

import (
	"context"
	"net/http"
	"time"

	"streamsalvage/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Redis  string `json:"redis"`
	Sqlite string `json:"sqlite"`
}

// Readyz reports ready only when both stores answer a ping. A node that lost
// its cache or its forensic log should be rotated out, not handed traffic.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyzResponse{Ready: true, Redis: "ok", Sqlite: "ok"}

		if d.RedisClient == nil || d.RedisClient.Ping(ctx).Err() != nil {
			resp.Ready = false
			resp.Redis = "unreachable"
		}
		if d.DB == nil || d.DB.Ping(ctx) != nil {
			resp.Ready = false
			resp.Sqlite = "unreachable"
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
