package routes

import (
	"github.com/go-chi/chi/v5"

	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/httpserver/handlers"
	"streamsalvage/internal/httpserver/mw"
)

func init() { Register(registerProxies) }

func registerProxies(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/proxies", handlers.Proxies(d))
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	).Post("/api/proxies/probe", handlers.TriggerProbe(d))
}
