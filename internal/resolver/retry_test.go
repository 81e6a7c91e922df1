package resolver

import (
	"context"
	"testing"
	"time"

	"streamsalvage/internal/domain"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: 100 * time.Millisecond, Factor: 2.0, MaxDelay: 500 * time.Millisecond}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 500 * time.Millisecond}, // capped
		{4, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.n); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestRetryRunStopsOnSuccess(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, Factor: 2.0}

	calls := 0
	res := p.Run(context.Background(), func(try int) domain.RaceResult {
		calls++
		if try == 1 {
			w := domain.Attempt{Strategy: domain.StrategyDirect, Success: true}
			return domain.RaceResult{Success: true, Winning: &w, Attempts: []domain.Attempt{w}}
		}
		return domain.RaceResult{Attempts: []domain.Attempt{{Strategy: domain.StrategyDirect, ErrorClass: domain.ErrClassNetwork}}}
	})

	if calls != 2 {
		t.Errorf("expected 2 rounds, got %d", calls)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	if len(res.Attempts) != 2 {
		t.Errorf("history should span every round, got %d attempts", len(res.Attempts))
	}
}

func TestRetryRunExhaustsBudget(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, Factor: 2.0}

	calls := 0
	res := p.Run(context.Background(), func(int) domain.RaceResult {
		calls++
		return domain.RaceResult{Attempts: []domain.Attempt{{Strategy: domain.StrategyDirect, ErrorClass: domain.ErrClassTimeout}}}
	})

	if calls != 3 {
		t.Errorf("expected the full budget of 3 rounds, got %d", calls)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	if len(res.Attempts) != 3 {
		t.Errorf("expected 3 accumulated attempts, got %d", len(res.Attempts))
	}
}

func TestRetryRunHonorsContext(t *testing.T) {
	p := RetryPolicy{Attempts: 10, BaseDelay: time.Hour, Factor: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res := p.Run(ctx, func(int) domain.RaceResult {
		calls++
		return domain.RaceResult{Attempts: []domain.Attempt{{Strategy: domain.StrategyDirect, ErrorClass: domain.ErrClassNetwork}}}
	})

	if calls != 1 {
		t.Errorf("cancellation should stop further rounds, got %d", calls)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
}

func TestRetryRunDefaultsToOneAttempt(t *testing.T) {
	p := RetryPolicy{}

	calls := 0
	p.Run(context.Background(), func(int) domain.RaceResult {
		calls++
		return domain.RaceResult{}
	})
	if calls != 1 {
		t.Errorf("zero-valued policy should still run once, got %d", calls)
	}
}
