package handlers

import (
	"net/http"

	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/logger"
)

// Proxies lists every registered relay with its live health state.
func Proxies(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Pool.Snapshot())
	}
}

// TriggerProbe kicks off an immediate probe round against all relays.
func TriggerProbe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ProbeTrigger <- struct{}{}:
			d.Logger.Info("manual relay probe triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("✅ Probe round triggered\n"))
		default:
			d.Logger.Warn("relay probe already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("⏳ Probe already in progress, please wait\n"))
		}
	}
}

// TriggerRefresh kicks off an immediate offline-channel refresh cycle.
func TriggerRefresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual channel refresh triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("✅ Refresh triggered\n"))
		default:
			d.Logger.Warn("channel refresh already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("⏳ Refresh already in progress, please wait\n"))
		}
	}
}
