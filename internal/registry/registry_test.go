package registry

import (
	"context"
	"path/filepath"
	"testing"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/store/sqlite"
)

func testRegistry(t *testing.T, curated map[string][]domain.Alternate) *Registry {
	t.Helper()
	log := logger.New("error", false)
	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "reg.db"), log)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(curated, db, log, 3)
}

func TestCandidatesOriginalAlwaysFirst(t *testing.T) {
	r := testRegistry(t, nil)

	got := r.Candidates(context.Background(), "news-24", "http://orig.example/a.m3u8")
	if len(got) != 1 || got[0] != "http://orig.example/a.m3u8" {
		t.Errorf("Candidates() = %v, want just the original", got)
	}
}

func TestCandidatesCuratedFilteredAndSorted(t *testing.T) {
	curated := map[string][]domain.Alternate{
		"news-24": {
			{Channel: "news-24", URL: "http://weak.example/a.m3u8", SuccessRate: 0.3},
			{Channel: "news-24", URL: "http://ok.example/a.m3u8", SuccessRate: 0.6},
			{Channel: "news-24", URL: "http://strong.example/a.m3u8", SuccessRate: 0.95},
		},
	}
	r := testRegistry(t, curated)

	got := r.Candidates(context.Background(), "news-24", "http://orig.example/a.m3u8")
	want := []string{
		"http://orig.example/a.m3u8",
		"http://strong.example/a.m3u8",
		"http://ok.example/a.m3u8",
	}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCandidatesCrowdOnlyWhenNoCurated(t *testing.T) {
	curated := map[string][]domain.Alternate{
		"with-curated": {
			{Channel: "with-curated", URL: "http://curated.example/a.m3u8", SuccessRate: 0.8},
		},
	}
	r := testRegistry(t, curated)
	ctx := context.Background()

	// Crowd submissions for both channels.
	for _, identity := range []string{"with-curated", "crowd-only"} {
		if _, err := r.Submit(ctx, identity, "http://crowd.example/"+identity+".m3u8"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	got := r.Candidates(ctx, "with-curated", "http://orig.example/a.m3u8")
	for _, url := range got {
		if url == "http://crowd.example/with-curated.m3u8" {
			t.Error("crowd alternate offered despite qualifying curated alternates")
		}
	}

	got = r.Candidates(ctx, "crowd-only", "http://orig.example/b.m3u8")
	if len(got) != 2 || got[1] != "http://crowd.example/crowd-only.m3u8" {
		t.Errorf("Candidates() = %v, want crowd alternate second", got)
	}
}

func TestCandidatesCrowdSortedByVotes(t *testing.T) {
	r := testRegistry(t, nil)
	ctx := context.Background()

	lowID, _ := r.Submit(ctx, "sports-1", "http://low.example/s.m3u8")
	highID, _ := r.Submit(ctx, "sports-1", "http://high.example/s.m3u8")

	for i := 0; i < 2; i++ {
		if _, err := r.Upvote(ctx, highID); err != nil {
			t.Fatalf("Upvote() error = %v", err)
		}
	}
	if _, _, err := r.Downvote(ctx, lowID); err != nil {
		t.Fatalf("Downvote() error = %v", err)
	}

	got := r.Candidates(ctx, "sports-1", "http://orig.example/s.m3u8")
	want := []string{"http://orig.example/s.m3u8", "http://high.example/s.m3u8", "http://low.example/s.m3u8"}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDownvoteThresholdPrunes(t *testing.T) {
	r := testRegistry(t, nil)
	ctx := context.Background()

	id, err := r.Submit(ctx, "news-24", "http://bad.example/a.m3u8")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	var removed bool
	for i := 0; i < 4; i++ {
		if _, removed, err = r.Downvote(ctx, id); err != nil {
			t.Fatalf("Downvote() error = %v", err)
		}
		if i < 3 && removed {
			t.Fatalf("alternate removed after only %d downvotes", i+1)
		}
	}
	if !removed {
		t.Fatal("alternate not removed past the downvote threshold")
	}

	crowd, err := r.Crowd(ctx, "news-24")
	if err != nil {
		t.Fatalf("Crowd() error = %v", err)
	}
	if len(crowd) != 0 {
		t.Errorf("Crowd() = %v after prune, want empty", crowd)
	}
}

func TestCandidatesDeduplicates(t *testing.T) {
	curated := map[string][]domain.Alternate{
		"news-24": {
			{Channel: "news-24", URL: "http://orig.example/a.m3u8", SuccessRate: 0.9},
		},
	}
	r := testRegistry(t, curated)

	got := r.Candidates(context.Background(), "news-24", "http://orig.example/a.m3u8")
	if len(got) != 1 {
		t.Errorf("Candidates() = %v, want deduplicated single entry", got)
	}
}
