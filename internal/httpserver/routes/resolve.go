package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/httpserver/handlers"
	"streamsalvage/internal/httpserver/mw"
)

func init() { Register(registerResolve) }

func registerResolve(r chi.Router, d deps.Deps) {
	// Resolves fan out real network attempts, so they get the tightest
	// per-client budget of any endpoint.
	limited := r.With(
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             5,
			RefillPerIPPerMin: 20,
			MaxEntries:        4096,
			SweepInterval:     time.Minute,
			IdleTTL:           15 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	limited.Post("/api/resolve", handlers.Resolve(d))
	limited.Post("/api/playback-report", handlers.PlaybackReport(d))
}
