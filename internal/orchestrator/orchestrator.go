package orchestrator

import (
	"context"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/forensic"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/metrics"
	"streamsalvage/internal/pool"
	"streamsalvage/internal/registry"
	"streamsalvage/internal/resolver"
	redisstore "streamsalvage/internal/store/redis"
)

// Options tunes a single resolve call. Zero values fall back to the
// orchestrator-wide defaults set at construction.
type Options struct {
	Timeout       time.Duration
	RetryBudget   int
	UseAlternates bool
	PersistLog    bool
}

// Orchestrator drives one channel through the full salvage pipeline:
// cache, candidate expansion, racing with retries, verdict, persistence.
type Orchestrator struct {
	racer    *resolver.Racer
	registry *registry.Registry
	cache    *redisstore.Store
	forensic *forensic.Service
	pool     *pool.Pool
	logger   logger.Logger

	policy   resolver.RetryPolicy
	cacheTTL time.Duration
}

type Config struct {
	RetryPolicy resolver.RetryPolicy
	CacheTTL    time.Duration
}

func New(r *resolver.Racer, reg *registry.Registry, cache *redisstore.Store, f *forensic.Service, p *pool.Pool, log logger.Logger, cfg Config) *Orchestrator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = redisstore.DefaultCacheTTL
	}
	return &Orchestrator{
		racer:    r,
		registry: reg,
		cache:    cache,
		forensic: f,
		pool:     p,
		logger:   log,
		policy:   cfg.RetryPolicy,
		cacheTTL: cfg.CacheTTL,
	}
}

// Resolve finds a playable URL for the channel or explains why none exists.
// Storage trouble along the way degrades to warnings, it never changes the
// outcome the caller sees.
func (o *Orchestrator) Resolve(ctx context.Context, ch domain.Channel, opts Options) (domain.ResolutionResult, error) {
	if cached := o.cachedResult(ctx, ch.URL); cached != nil {
		return *cached, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	policy := o.policy
	if opts.RetryBudget > 0 {
		policy.Attempts = opts.RetryBudget
	}

	candidates := []string{ch.URL}
	if opts.UseAlternates && o.registry != nil {
		candidates = o.registry.Candidates(ctx, ch.Identity, ch.URL)
	}

	start := time.Now()

	var history []domain.Attempt
	var winner *domain.Attempt
	for _, candidate := range candidates {
		res := policy.Run(ctx, func(int) domain.RaceResult {
			return o.racer.Race(ctx, candidate)
		})
		history = append(history, res.Attempts...)
		if res.Success {
			winner = res.Winning
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	result := domain.ResolutionResult{
		Attempts:  history,
		Timestamp: time.Now(),
	}
	if winner != nil {
		result.Verdict = domain.VerdictSuccess
		result.WinningURL = winner.URL
		result.WinningStrategy = winner.Strategy
	} else {
		result.Verdict = domain.ClassifyVerdict(history)
	}
	result.Recommendation = domain.Recommend(result.Verdict)

	o.observe(result.Verdict, time.Since(start))

	if winner != nil {
		if err := o.cache.CacheResolution(ctx, ch.URL, &result, o.cacheTTL); err != nil {
			o.logger.Warn("caching resolution failed", logger.String("url", ch.URL), logger.Error(err))
		}
	}
	if opts.PersistLog && o.forensic != nil {
		if _, err := o.forensic.Record(ctx, ch, result); err != nil {
			o.logger.Warn("persisting forensic entry failed", logger.String("channel", ch.Name), logger.Error(err))
		}
	}

	// Keep the offline set current so the refresher knows what to re-check.
	if ch.Identity != "" {
		if err := o.cache.SetChannelStatus(ctx, redisstore.ChannelStatus{
			Channel:   ch,
			Online:    winner != nil,
			CheckedAt: result.Timestamp,
		}); err != nil {
			o.logger.Warn("updating channel status failed", logger.String("channel", ch.Identity), logger.Error(err))
		}
	}

	o.logger.Info("resolution finished",
		logger.String("channel", ch.Name),
		logger.String("verdict", string(result.Verdict)),
		logger.Int("attempts", len(result.Attempts)),
		logger.Duration("took", time.Since(start)),
	)
	return result, nil
}

// PlaybackReport is client feedback about a previously resolved URL.
type PlaybackReport struct {
	ChannelURL string `json:"channel_url"`
	Strategy   string `json:"strategy"`
	Success    bool   `json:"success"`
	Status     int    `json:"status,omitempty"`
}

// ReportPlayback folds real playback experience back into relay health and
// evicts the cached resolution when the stream died after resolving.
func (o *Orchestrator) ReportPlayback(ctx context.Context, rep PlaybackReport) {
	metrics.ObserveAttempt(rep.Strategy, rep.Success)

	if rep.Strategy != "" && rep.Strategy != domain.StrategyDirect {
		if rep.Success {
			o.pool.ReportSuccess(rep.Strategy, 0)
		} else {
			class := domain.ErrClassNetwork
			if rep.Status > 0 {
				class = domain.ClassifyStatus(rep.Status)
			}
			o.pool.ReportFailure(rep.Strategy, class)
		}
	}

	if !rep.Success && rep.ChannelURL != "" {
		if err := o.cache.InvalidateResolution(ctx, rep.ChannelURL); err != nil {
			o.logger.Warn("evicting stale resolution failed", logger.String("url", rep.ChannelURL), logger.Error(err))
		}
	}
}

func (o *Orchestrator) cachedResult(ctx context.Context, url string) *domain.ResolutionResult {
	cached, err := o.cache.GetCachedResolution(ctx, url)
	if err != nil {
		o.logger.Warn("cache lookup failed", logger.String("url", url), logger.Error(err))
		return nil
	}
	metrics.ObserveCache(cached != nil)
	if cached != nil {
		o.logger.Debug("resolution served from cache", logger.String("url", url))
	}
	return cached
}

func (o *Orchestrator) observe(v domain.Verdict, took time.Duration) {
	if metrics.ResolutionsTotal != nil {
		metrics.ResolutionsTotal.WithLabelValues(string(v)).Inc()
	}
	if metrics.ResolutionDuration != nil {
		metrics.ResolutionDuration.Observe(took.Seconds())
	}
}
