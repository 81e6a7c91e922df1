package routes

import (
	"github.com/go-chi/chi/v5"

	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/httpserver/handlers"
	"streamsalvage/internal/httpserver/mw"
)

func init() { Register(registerAlternates) }

func registerAlternates(r chi.Router, d deps.Deps) {
	sub := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	sub.Get("/api/channels/{identity}/alternates", handlers.ListAlternates(d))
	sub.Post("/api/channels/{identity}/alternates", handlers.SubmitAlternate(d))
	sub.Post("/api/alternates/{id}/upvote", handlers.VoteAlternate(d, true))
	sub.Post("/api/alternates/{id}/downvote", handlers.VoteAlternate(d, false))
	sub.Delete("/api/alternates/{id}", handlers.DeleteAlternate(d))
}
