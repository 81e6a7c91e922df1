package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/store/sqlite"
)

// forensicFilterFromQuery reads the shared filter params: verdict, name,
// from, to (RFC3339).
func forensicFilterFromQuery(r *http.Request) (sqlite.ForensicFilter, error) {
	f := sqlite.ForensicFilter{
		Verdict:      domain.Verdict(r.URL.Query().Get("verdict")),
		NameContains: r.URL.Query().Get("name"),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("from must be RFC3339")
		}
		f.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("to must be RFC3339")
		}
		f.To = t
	}
	return f, nil
}

// ForensicList returns log entries matching the query filters, newest first.
func ForensicList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := forensicFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		entries, err := d.Forensic.List(r.Context(), f)
		if err != nil {
			d.Logger.Error("forensic list failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "could not read forensic log")
			return
		}
		if entries == nil {
			entries = []domain.ForensicEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// ForensicStats returns aggregate statistics over the filtered log.
func ForensicStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := forensicFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		st, err := d.Forensic.Stats(r.Context(), f)
		if err != nil {
			d.Logger.Error("forensic stats failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "could not compute statistics")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// ForensicExport streams the filtered log as a downloadable document.
// format=json (default) yields the structured export, format=csv the flat one.
func ForensicExport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := forensicFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		format := r.URL.Query().Get("format")
		stamp := time.Now().UTC().Format("20060102-150405")

		switch format {
		case "", "json":
			out, err := d.Forensic.ExportJSON(r.Context(), f)
			if err != nil {
				d.Logger.Error("forensic export failed", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "export failed")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Disposition", `attachment; filename="salvage-log-`+stamp+`.json"`)
			_, _ = w.Write(out)
		case "csv":
			out, err := d.Forensic.ExportCSV(r.Context(), f)
			if err != nil {
				d.Logger.Error("forensic export failed", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "export failed")
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="salvage-log-`+stamp+`.csv"`)
			_, _ = w.Write(out)
		default:
			writeError(w, http.StatusBadRequest, "format must be json or csv")
		}
	}
}

// ForensicDelete removes a single entry.
func ForensicDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Forensic.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "entry not found")
				return
			}
			d.Logger.Error("forensic delete failed", logger.String("id", id), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type purgeResponse struct {
	Removed int64 `json:"removed"`
}

// ForensicPurge wipes the entire log.
func ForensicPurge(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.Forensic.Purge(r.Context())
		if err != nil {
			d.Logger.Error("forensic purge failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "purge failed")
			return
		}
		writeJSON(w, http.StatusOK, purgeResponse{Removed: n})
	}
}
