package routes

import (
	"github.com/go-chi/chi/v5"

	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/httpserver/handlers"
	"streamsalvage/internal/httpserver/mw"
)

func init() { Register(registerForensics) }

func registerForensics(r chi.Router, d deps.Deps) {
	sub := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	sub.Get("/api/forensics", handlers.ForensicList(d))
	sub.Get("/api/forensics/stats", handlers.ForensicStats(d))
	sub.Get("/api/forensics/export", handlers.ForensicExport(d))

	// Destructive operations are locked to the operator networks.
	locked := sub.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	locked.Delete("/api/forensics/{id}", handlers.ForensicDelete(d))
	locked.Delete("/api/forensics", handlers.ForensicPurge(d))
}
