package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/orchestrator"
)

type resolveRequest struct {
	Channel       domain.Channel `json:"channel"`
	UseAlternates bool           `json:"use_alternates"`
	PersistLog    *bool          `json:"persist_log,omitempty"` // default true
	RetryBudget   int            `json:"retry_budget,omitempty"`
}

// Resolve drives one channel through the salvage pipeline and returns the
// verdict, the winning URL when there is one, and the full attempt history.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Channel.URL == "" {
			writeError(w, http.StatusBadRequest, "channel.url is required")
			return
		}
		if u, err := url.Parse(req.Channel.URL); err != nil || u.Scheme == "" || u.Host == "" {
			writeError(w, http.StatusBadRequest, "channel.url must be an absolute URL")
			return
		}

		persist := true
		if req.PersistLog != nil {
			persist = *req.PersistLog
		}

		d.Logger.Info("resolve request",
			logger.String("channel", req.Channel.Name),
			logger.String("url", req.Channel.URL))

		start := time.Now()
		result, err := d.Orchestrator.Resolve(r.Context(), req.Channel, orchestrator.Options{
			Timeout:       d.ResolveTimeout,
			RetryBudget:   req.RetryBudget,
			UseAlternates: req.UseAlternates,
			PersistLog:    persist,
		})
		if err != nil {
			d.Logger.Error("resolve failed",
				logger.String("url", req.Channel.URL),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "resolution failed")
			return
		}

		d.Logger.Debug("resolve responded",
			logger.String("verdict", string(result.Verdict)),
			logger.Duration("took", time.Since(start)))
		writeJSON(w, http.StatusOK, result)
	}
}

// PlaybackReport accepts client feedback about a resolved URL that later
// failed (or kept working) during actual playback.
func PlaybackReport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rep orchestrator.PlaybackReport
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if rep.Strategy == "" && rep.ChannelURL == "" {
			writeError(w, http.StatusBadRequest, "strategy or channel_url is required")
			return
		}

		d.Orchestrator.ReportPlayback(r.Context(), rep)
		w.WriteHeader(http.StatusAccepted)
	}
}
