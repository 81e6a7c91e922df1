package forensic

import (
	"context"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/store/sqlite"
)

// StrategyStats aggregates every attempt made under one strategy name.
type StrategyStats struct {
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats is the aggregate view over a slice of the forensic log.
type Stats struct {
	TotalEntries       int                      `json:"total_entries"`
	SuccessfulEntries  int                      `json:"successful_entries"`
	OverallSuccessRate float64                  `json:"overall_success_rate"`
	Verdicts           map[domain.Verdict]int   `json:"verdicts"`
	Strategies         map[string]StrategyStats `json:"strategies"`
	BestStrategy       string                   `json:"best_strategy,omitempty"`
}

// Stats aggregates the entries matching the filter.
func (s *Service) Stats(ctx context.Context, f sqlite.ForensicFilter) (Stats, error) {
	entries, err := s.db.ForensicEntries(ctx, f)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(entries), nil
}

// Aggregate computes statistics over an in-memory entry slice.
func Aggregate(entries []domain.ForensicEntry) Stats {
	st := Stats{
		TotalEntries: len(entries),
		Verdicts:     make(map[domain.Verdict]int),
		Strategies:   make(map[string]StrategyStats),
	}

	for _, e := range entries {
		st.Verdicts[e.Verdict]++
		if e.Verdict == domain.VerdictSuccess {
			st.SuccessfulEntries++
		}
		for _, a := range e.Attempts {
			ss := st.Strategies[a.Strategy]
			ss.Attempts++
			if a.Success {
				ss.Successes++
			}
			st.Strategies[a.Strategy] = ss
		}
	}

	if st.TotalEntries > 0 {
		st.OverallSuccessRate = float64(st.SuccessfulEntries) / float64(st.TotalEntries)
	}

	best := ""
	bestRate := -1.0
	bestAttempts := 0
	for name, ss := range st.Strategies {
		if ss.Attempts == 0 {
			continue
		}
		rate := float64(ss.Successes) / float64(ss.Attempts)
		ss.SuccessRate = rate
		st.Strategies[name] = ss
		// Ties go to the strategy with the larger sample.
		if rate > bestRate || (rate == bestRate && ss.Attempts > bestAttempts) {
			best = name
			bestRate = rate
			bestAttempts = ss.Attempts
		}
	}
	if bestRate > 0 {
		st.BestStrategy = best
	}
	return st
}
