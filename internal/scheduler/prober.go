package scheduler

import (
	"context"
	"time"

	"streamsalvage/internal/logger"
	"streamsalvage/internal/metrics"
	"streamsalvage/internal/pool"
	"streamsalvage/internal/resolver"
)

const DefaultProbeTarget = "https://www.gstatic.com/generate_204"

// Prober periodically exercises every registered relay against a known-good
// target so health scores reflect reality even for relays the resolver has
// not used lately.
type Prober struct {
	racer         *resolver.Racer
	pool          *pool.Pool
	logger        logger.Logger
	interval      time.Duration
	target        string
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

func NewProber(
	racer *resolver.Racer,
	p *pool.Pool,
	log logger.Logger,
	interval time.Duration,
	target string,
	manualTrigger chan struct{},
) *Prober {
	if target == "" {
		target = DefaultProbeTarget
	}
	return &Prober{
		racer:         racer,
		pool:          p,
		logger:        log,
		interval:      interval,
		target:        target,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic probe cycle.
func (pr *Prober) Start(ctx context.Context) error {
	// Run immediately on start so health is fresh before the first resolve.
	pr.Probe(ctx)

	ticker := time.NewTicker(pr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pr.Probe(ctx)
			case <-pr.manualTrigger:
				pr.logger.Info("manual relay probe triggered")
				pr.Probe(ctx)
			case <-pr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the prober.
func (pr *Prober) Stop() {
	close(pr.stopCh)
}

// Probe runs one probe round across every registered relay.
func (pr *Prober) Probe(ctx context.Context) {
	statuses := pr.pool.Snapshot()
	if len(statuses) == 0 {
		return
	}
	pr.logger.Debug("probing relays", logger.Int("count", len(statuses)))

	for _, st := range statuses {
		if ctx.Err() != nil {
			return
		}
		a := pr.racer.Probe(ctx, st.Proxy, pr.target)
		pr.pool.RecordProbe(st.Proxy.Name, a.Success, a.Duration, a.ErrorClass)

		outcome := "failure"
		if a.Success {
			outcome = "success"
		}
		if metrics.ProbesTotal != nil {
			metrics.ProbesTotal.WithLabelValues(st.Proxy.Name, outcome).Inc()
		}
	}

	// Re-read after feedback so the gauge shows post-probe health.
	if metrics.ProxyHealth != nil {
		for _, st := range pr.pool.Snapshot() {
			metrics.ProxyHealth.WithLabelValues(st.Proxy.Name).Set(st.Health)
		}
	}
}
