package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/httpserver/handlers"
	"streamsalvage/internal/httpserver/mw"
)

func init() { Register(registerInfra) }

func registerInfra(r chi.Router, d deps.Deps) {
	sub := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	sub.Get("/infra", handlers.Infra(d))
	sub.Method("GET", "/metrics", promhttp.Handler())
}
