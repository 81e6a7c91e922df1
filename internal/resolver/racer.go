package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/metrics"
	"streamsalvage/internal/pool"
)

const (
	defaultAttemptTimeout = 12 * time.Second
	defaultGraceWindow    = 750 * time.Millisecond

	// How much of a winning body we actually pull down. Enough to prove the
	// upstream serves bytes, cheap enough to abort immediately after.
	peekBytes = 1024
)

// Options tunes one Racer. Zero values fall back to the defaults above.
type Options struct {
	AttemptTimeout time.Duration
	GraceWindow    time.Duration
	SecureOrigin   bool
}

// Racer resolves one target URL in two stages: the direct route first, then,
// only when it fails, a concurrent race across every eligible relay.
type Racer struct {
	client  *http.Client
	pool    *pool.Pool
	logger  logger.Logger
	timeout time.Duration
	grace   time.Duration
	secure  bool
}

func New(p *pool.Pool, log logger.Logger, opts Options) *Racer {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.GraceWindow <= 0 {
		opts.GraceWindow = defaultGraceWindow
	}
	return &Racer{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pool:    p,
		logger:  log,
		timeout: opts.AttemptTimeout,
		grace:   opts.GraceWindow,
		secure:  opts.SecureOrigin,
	}
}

// Race runs the direct lane to completion first. A direct success never
// touches a relay; only a direct failure fans the target out across every
// eligible relay at once.
func (r *Racer) Race(ctx context.Context, target string) domain.RaceResult {
	var attempts []domain.Attempt

	if r.secure && isPlainHTTP(target) {
		// Served over HTTPS the browser would refuse this fetch outright,
		// so the direct lane fails before any socket is opened.
		perr := &domain.PolicyError{URL: target, Reason: "mixed content: plain-http target from a secure origin"}
		attempts = append(attempts, domain.Attempt{
			Strategy:   domain.StrategyDirect,
			URL:        target,
			Success:    false,
			ErrorClass: domain.ClassifyError(perr),
		})
		r.logger.Debug("direct lane blocked by mixed-content policy", logger.String("url", target))
	} else {
		direct, _ := r.fetch(ctx, domain.StrategyDirect, target, target, false)
		attempts = append(attempts, direct)
		r.feedback(direct)
		if direct.Success {
			w := direct
			return domain.RaceResult{Success: true, Winning: &w, Attempts: attempts}
		}
	}

	return r.relayRace(ctx, target, attempts)
}

// relayRace races every eligible relay concurrently. The first success wins;
// a short grace window still drains lanes that were about to finish so their
// outcome feeds relay health.
func (r *Racer) relayRace(ctx context.Context, target string, attempts []domain.Attempt) domain.RaceResult {
	eligible := r.pool.Eligible(target)

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan domain.Attempt, len(eligible))
	for _, px := range eligible {
		px := px
		r.pool.RecordUse(px.Name)
		go func() {
			a, _ := r.fetch(raceCtx, px.Name, px.BuildURL(target), target, true)
			results <- a
		}()
	}

	var winner *domain.Attempt
	var graceC <-chan time.Time

	for done := 0; done < len(eligible); {
		select {
		case a := <-results:
			done++
			attempts = append(attempts, a)
			r.feedback(a)
			if a.Success && winner == nil {
				w := a
				winner = &w
				t := time.NewTimer(r.grace)
				defer t.Stop()
				graceC = t.C
			}
		case <-graceC:
			cancel()
			done = len(eligible)
		}
	}

	return domain.RaceResult{
		Success:  winner != nil,
		Winning:  winner,
		Attempts: attempts,
	}
}

// Probe runs a single lane against target through the named relay, bypassing
// the race. Used by the background prober.
func (r *Racer) Probe(ctx context.Context, proxy domain.Proxy, target string) domain.Attempt {
	a, _ := r.fetch(ctx, proxy.Name, proxy.BuildURL(target), target, true)
	return a
}

// FetchDirect runs a single direct-lane attempt. The refresher falls back to
// it when no relay is eligible for a target.
func (r *Racer) FetchDirect(ctx context.Context, target string) domain.Attempt {
	a, _ := r.fetch(ctx, domain.StrategyDirect, target, target, false)
	return a
}

func (r *Racer) fetch(ctx context.Context, strategy, reqURL, target string, spoof bool) (domain.Attempt, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		terr := &domain.TransportError{URL: reqURL, Err: err}
		return domain.Attempt{
			Strategy:   strategy,
			URL:        reqURL,
			Duration:   time.Since(start),
			ErrorClass: domain.ClassifyError(terr),
		}, err
	}
	if spoof {
		ApplyBrowserIdentity(req, target)
	} else {
		req.Header.Set("User-Agent", nextUserAgent())
	}

	resp, err := r.client.Do(req)
	dur := time.Since(start)
	if err != nil {
		terr := &domain.TransportError{
			URL:     reqURL,
			Timeout: errors.Is(err, context.DeadlineExceeded),
			Err:     err,
		}
		return domain.Attempt{
			Strategy:   strategy,
			URL:        reqURL,
			Duration:   dur,
			ErrorClass: domain.ClassifyError(terr),
		}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, peekBytes))

	status := resp.StatusCode
	class := domain.ClassifyStatus(status)
	return domain.Attempt{
		Strategy:   strategy,
		URL:        reqURL,
		Status:     &status,
		Duration:   dur,
		Success:    class == domain.ErrClassNone,
		ErrorClass: class,
	}, nil
}

// feedback routes one lane outcome into relay health and metrics. The direct
// lane has no health entry, so it only counts toward metrics.
func (r *Racer) feedback(a domain.Attempt) {
	metrics.ObserveAttempt(a.Strategy, a.Success)
	if a.Strategy == domain.StrategyDirect {
		return
	}
	if a.Success {
		r.pool.ReportSuccess(a.Strategy, a.Duration)
		return
	}
	r.pool.ReportFailure(a.Strategy, a.ErrorClass)
}

func isPlainHTTP(target string) bool {
	return strings.HasPrefix(strings.ToLower(target), "http://")
}
