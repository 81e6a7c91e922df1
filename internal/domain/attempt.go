package domain

import "time"

// StrategyDirect is the strategy name for a plain, unrelayed fetch.
// Proxied attempts carry the relay's registered name instead.
const StrategyDirect = "Direct"

// Attempt records one network try against one target URL.
// Attempts are immutable once recorded.
type Attempt struct {
	Strategy string `json:"strategy"`
	URL      string `json:"url"`

	// Status is the HTTP status code, nil when no response was received.
	Status *int `json:"status,omitempty"`

	Duration   time.Duration `json:"duration"`
	Success    bool          `json:"success"`
	ErrorClass ErrorClass    `json:"error_class,omitempty"`
}

// StatusCode returns the HTTP status or 0 when no response was received.
func (a Attempt) StatusCode() int {
	if a.Status == nil {
		return 0
	}
	return *a.Status
}

// RaceResult is the outcome of racing all strategies for one candidate URL.
type RaceResult struct {
	Success  bool
	Winning  *Attempt
	Attempts []Attempt
}

// ResolutionResult is the final outcome of one resolve call.
type ResolutionResult struct {
	Verdict         Verdict   `json:"verdict"`
	WinningURL      string    `json:"winning_url,omitempty"`
	WinningStrategy string    `json:"winning_strategy,omitempty"`
	Attempts        []Attempt `json:"attempts"`
	Recommendation  string    `json:"recommendation,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ForensicEntry is one durable record of a completed resolution.
type ForensicEntry struct {
	ID             string    `json:"id"`
	Channel        Channel   `json:"channel"`
	Verdict        Verdict   `json:"verdict"`
	Attempts       []Attempt `json:"attempts"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// FinalAttempt returns the last recorded attempt, or nil when none exist.
func (e ForensicEntry) FinalAttempt() *Attempt {
	if len(e.Attempts) == 0 {
		return nil
	}
	return &e.Attempts[len(e.Attempts)-1]
}
