package resolver

import (
	"context"
	"time"

	"streamsalvage/internal/domain"
)

// RetryPolicy bounds how many full races one candidate URL gets and how long
// we back off between them.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	Factor    float64
	MaxDelay  time.Duration
}

// Delay returns the backoff before retry n (0-based: n=0 is the pause after
// the first failed race).
func (p RetryPolicy) Delay(n int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < n; i++ {
		d *= p.Factor
	}
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// Run executes fn up to Attempts times, stopping early on the first winning
// race or when ctx expires. Attempts from every round are accumulated so the
// final verdict sees the complete history.
func (p RetryPolicy) Run(ctx context.Context, fn func(try int) domain.RaceResult) domain.RaceResult {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var history []domain.Attempt
	for try := 0; try < attempts; try++ {
		res := fn(try)
		history = append(history, res.Attempts...)
		if res.Success {
			res.Attempts = history
			return res
		}
		if try == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay(try))
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.RaceResult{Attempts: history}
		case <-timer.C:
		}
	}
	return domain.RaceResult{Attempts: history}
}
