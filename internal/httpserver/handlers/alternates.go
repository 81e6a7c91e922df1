package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/logger"
)

type submitAlternateRequest struct {
	URL string `json:"url"`
}

type submitAlternateResponse struct {
	ID int64 `json:"id"`
}

// SubmitAlternate records a community-supplied replacement URL for a channel.
func SubmitAlternate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := chi.URLParam(r, "identity")
		if identity == "" {
			writeError(w, http.StatusBadRequest, "channel identity is required")
			return
		}

		var req submitAlternateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if u, err := url.Parse(req.URL); err != nil || u.Scheme == "" || u.Host == "" {
			writeError(w, http.StatusBadRequest, "url must be an absolute URL")
			return
		}

		id, err := d.Registry.Submit(r.Context(), identity, req.URL)
		if err != nil {
			d.Logger.Error("alternate submission failed",
				logger.String("channel", identity), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "could not store alternate")
			return
		}
		writeJSON(w, http.StatusCreated, submitAlternateResponse{ID: id})
	}
}

// ListAlternates returns the crowd-sourced alternates for one channel,
// best-voted first.
func ListAlternates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := chi.URLParam(r, "identity")
		if identity == "" {
			writeError(w, http.StatusBadRequest, "channel identity is required")
			return
		}

		alts, err := d.Registry.Crowd(r.Context(), identity)
		if err != nil {
			d.Logger.Error("listing alternates failed",
				logger.String("channel", identity), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load alternates")
			return
		}
		if alts == nil {
			alts = []domain.Alternate{}
		}
		writeJSON(w, http.StatusOK, alts)
	}
}

type voteResponse struct {
	Alternate domain.Alternate `json:"alternate"`
	Removed   bool             `json:"removed"`
}

// VoteAlternate handles up and down votes. Enough downvotes remove the
// alternate outright and the response says so.
func VoteAlternate(d deps.Deps, up bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid alternate id")
			return
		}

		var resp voteResponse
		if up {
			resp.Alternate, err = d.Registry.Upvote(r.Context(), id)
		} else {
			resp.Alternate, resp.Removed, err = d.Registry.Downvote(r.Context(), id)
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "alternate not found")
				return
			}
			d.Logger.Error("vote failed", logger.Int64("id", id), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "vote failed")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// DeleteAlternate removes one alternate by id.
func DeleteAlternate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid alternate id")
			return
		}
		if err := d.DB.DeleteAlternate(r.Context(), id); err != nil {
			writeError(w, http.StatusNotFound, "alternate not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
