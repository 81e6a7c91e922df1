package forensic

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/store/sqlite"
)

func testService(t *testing.T) *Service {
	t.Helper()
	log := logger.New("error", false)
	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "forensic.db"), log)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, log)
}

func intPtr(v int) *int { return &v }

func sampleResult(verdict domain.Verdict, attempts []domain.Attempt) domain.ResolutionResult {
	return domain.ResolutionResult{
		Verdict:        verdict,
		Attempts:       attempts,
		Recommendation: domain.Recommend(verdict),
		Timestamp:      time.Now(),
	}
}

func TestRecordAssignsID(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ch := domain.Channel{Identity: "ch-1", Name: "News One", URL: "https://a.example/1.m3u8"}
	entry, err := svc.Record(ctx, ch, sampleResult(domain.VerdictSuccess, []domain.Attempt{
		{Strategy: domain.StrategyDirect, URL: ch.URL, Status: intPtr(200), Success: true},
	}))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected a generated id")
	}

	got, err := svc.List(ctx, sqlite.ForensicFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != entry.ID {
		t.Fatalf("expected the recorded entry back, got %+v", got)
	}
}

func TestStatsAggregation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ch := domain.Channel{Identity: "ch-1", Name: "News One", URL: "https://a.example/1.m3u8"}

	// Two successes via AllOrigins, one direct failure each time, one dead link.
	for i := 0; i < 2; i++ {
		_, err := svc.Record(ctx, ch, sampleResult(domain.VerdictSuccess, []domain.Attempt{
			{Strategy: domain.StrategyDirect, Status: intPtr(403), ErrorClass: domain.ErrClassForbidden},
			{Strategy: "AllOrigins", Status: intPtr(200), Success: true},
		}))
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	_, err := svc.Record(ctx, ch, sampleResult(domain.VerdictDeadLink, []domain.Attempt{
		{Strategy: domain.StrategyDirect, Status: intPtr(404), ErrorClass: domain.ErrClassNotFound},
	}))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	st, err := svc.Stats(ctx, sqlite.ForensicFilter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if st.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", st.TotalEntries)
	}
	if st.SuccessfulEntries != 2 {
		t.Errorf("SuccessfulEntries = %d, want 2", st.SuccessfulEntries)
	}
	if got := st.OverallSuccessRate; got < 0.66 || got > 0.67 {
		t.Errorf("OverallSuccessRate = %.3f, want ~0.667", got)
	}
	if st.Verdicts[domain.VerdictDeadLink] != 1 || st.Verdicts[domain.VerdictSuccess] != 2 {
		t.Errorf("unexpected verdict histogram: %+v", st.Verdicts)
	}

	ao := st.Strategies["AllOrigins"]
	if ao.Attempts != 2 || ao.Successes != 2 || ao.SuccessRate != 1.0 {
		t.Errorf("unexpected AllOrigins stats: %+v", ao)
	}
	direct := st.Strategies[domain.StrategyDirect]
	if direct.Attempts != 3 || direct.Successes != 0 {
		t.Errorf("unexpected Direct stats: %+v", direct)
	}
	if st.BestStrategy != "AllOrigins" {
		t.Errorf("BestStrategy = %q, want AllOrigins", st.BestStrategy)
	}
}

func TestAggregateEmpty(t *testing.T) {
	st := Aggregate(nil)
	if st.TotalEntries != 0 || st.OverallSuccessRate != 0 || st.BestStrategy != "" {
		t.Errorf("unexpected empty aggregate: %+v", st)
	}
}

func TestExportCSV(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ch := domain.Channel{Identity: "ch-1", Name: "News One", URL: "https://a.example/1.m3u8"}
	for _, v := range []domain.Verdict{domain.VerdictSuccess, domain.VerdictDeadLink, domain.VerdictForbidden} {
		status := 200
		switch v {
		case domain.VerdictDeadLink:
			status = 404
		case domain.VerdictForbidden:
			status = 403
		}
		_, err := svc.Record(ctx, ch, sampleResult(v, []domain.Attempt{
			{Strategy: domain.StrategyDirect, Status: &status, Success: v == domain.VerdictSuccess},
		}))
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	out, err := svc.ExportCSV(ctx, sqlite.ForensicFilter{})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	wantHeader := "Timestamp, Channel Name, Channel URL, Verdict, Attempts, Final Strategy, Status Code, Recommendation"
	if lines[0] != wantHeader {
		t.Errorf("header mismatch:\n got: %s\nwant: %s", lines[0], wantHeader)
	}
	if !strings.Contains(lines[1], "DEAD_LINK") && !strings.Contains(string(out), "DEAD_LINK") {
		t.Error("expected a DEAD_LINK row in the export")
	}
}

func TestExportJSON(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ch := domain.Channel{Identity: "ch-1", Name: "News One", URL: "https://a.example/1.m3u8"}
	if _, err := svc.Record(ctx, ch, sampleResult(domain.VerdictSuccess, []domain.Attempt{
		{Strategy: "AllOrigins", Status: intPtr(200), Success: true},
	})); err != nil {
		t.Fatalf("Record: %v", err)
	}

	out, err := svc.ExportJSON(ctx, sqlite.ForensicFilter{})
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var doc struct {
		Metadata struct {
			Entries int `json:"entries"`
		} `json:"metadata"`
		Statistics Stats                  `json:"statistics"`
		Logs       []domain.ForensicEntry `json:"logs"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.Metadata.Entries != 1 || len(doc.Logs) != 1 {
		t.Errorf("expected 1 entry in metadata and logs, got %d / %d", doc.Metadata.Entries, len(doc.Logs))
	}
	if doc.Statistics.TotalEntries != 1 {
		t.Errorf("statistics not embedded, got %+v", doc.Statistics)
	}
}

func TestPurge(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ch := domain.Channel{Identity: "ch-1", Name: "News One", URL: "https://a.example/1.m3u8"}
	for i := 0; i < 2; i++ {
		if _, err := svc.Record(ctx, ch, sampleResult(domain.VerdictSuccess, []domain.Attempt{
			{Strategy: domain.StrategyDirect, Status: intPtr(200), Success: true},
		})); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	n, err := svc.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 2 {
		t.Errorf("Purge removed %d, want 2", n)
	}
	left, err := svc.List(ctx, sqlite.ForensicFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected empty log after purge, got %d entries", len(left))
	}
}
