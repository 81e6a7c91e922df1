package forensic

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/store/sqlite"
)

// csvHeader is the flat-export column set. Field order is part of the
// export contract, keep it stable.
var csvHeader = []string{
	"Timestamp", " Channel Name", " Channel URL", " Verdict",
	" Attempts", " Final Strategy", " Status Code", " Recommendation",
}

type exportMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	Entries     int       `json:"entries"`
}

type jsonExport struct {
	Metadata   exportMetadata         `json:"metadata"`
	Statistics Stats                  `json:"statistics"`
	Logs       []domain.ForensicEntry `json:"logs"`
}

// ExportJSON renders the filtered log as a self-describing JSON document
// with metadata and aggregate statistics alongside the raw entries.
func (s *Service) ExportJSON(ctx context.Context, f sqlite.ForensicFilter) ([]byte, error) {
	entries, err := s.db.ForensicEntries(ctx, f)
	if err != nil {
		return nil, err
	}

	doc := jsonExport{
		Metadata: exportMetadata{
			GeneratedAt: time.Now().UTC(),
			Entries:     len(entries),
		},
		Statistics: Aggregate(entries),
		Logs:       entries,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ExportCSV renders the filtered log as a flat spreadsheet, one row per
// entry, summarizing each entry by its final attempt.
func (s *Service) ExportCSV(ctx context.Context, f sqlite.ForensicFilter) ([]byte, error) {
	entries, err := s.db.ForensicEntries(ctx, f)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, e := range entries {
		final := e.FinalAttempt()
		strategy := ""
		status := ""
		if final != nil {
			strategy = final.Strategy
			if final.Status != nil {
				status = strconv.Itoa(*final.Status)
			}
		}
		row := []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Channel.Name,
			e.Channel.URL,
			string(e.Verdict),
			strconv.Itoa(len(e.Attempts)),
			strategy,
			status,
			e.Recommendation,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
