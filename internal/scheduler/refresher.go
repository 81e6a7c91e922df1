package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/pool"
	"streamsalvage/internal/resolver"
	redisstore "streamsalvage/internal/store/redis"
)

const (
	DefaultRefreshBatchLimit = 10
	DefaultRefreshPause      = 2 * time.Second
)

// Refresher re-checks channels currently marked offline, a small batch per
// cycle, and announces the ones that came back. Scheduled cycles run silent
// (debug-level only) so the log stays readable.
type Refresher struct {
	racer         *resolver.Racer
	pool          *pool.Pool
	store         *redisstore.Store
	logger        logger.Logger
	interval      time.Duration
	batchLimit    int
	pause         time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	mu          sync.Mutex
	subscribers []chan domain.Channel
}

func NewRefresher(
	racer *resolver.Racer,
	p *pool.Pool,
	store *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	batchLimit int,
	pause time.Duration,
	manualTrigger chan struct{},
) *Refresher {
	if batchLimit <= 0 {
		batchLimit = DefaultRefreshBatchLimit
	}
	if pause <= 0 {
		pause = DefaultRefreshPause
	}
	return &Refresher{
		racer:         racer,
		pool:          p,
		store:         store,
		logger:        log,
		interval:      interval,
		batchLimit:    batchLimit,
		pause:         pause,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic refresh cycle.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Refresh(ctx, true)
			case <-r.manualTrigger:
				r.logger.Info("manual channel refresh triggered")
				r.Refresh(ctx, false)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher.
func (r *Refresher) Stop() {
	close(r.stopCh)
}

// Subscribe returns a channel that receives every channel observed coming
// back online. Slow subscribers miss notifications rather than stall a cycle.
func (r *Refresher) Subscribe() <-chan domain.Channel {
	ch := make(chan domain.Channel, 16)
	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()
	return ch
}

// Refresh runs one cycle: pick a batch of offline channels, favorites first,
// and probe them one at a time with a pause in between.
func (r *Refresher) Refresh(ctx context.Context, silent bool) {
	offline, err := r.store.OfflineChannels(ctx)
	if err != nil {
		r.logger.Warn("listing offline channels failed", logger.Error(err))
		return
	}
	if len(offline) == 0 {
		if !silent {
			r.logger.Info("no offline channels to refresh")
		}
		return
	}

	sort.SliceStable(offline, func(i, j int) bool {
		return offline[i].Favorite && !offline[j].Favorite
	})
	if len(offline) > r.batchLimit {
		offline = offline[:r.batchLimit]
	}

	r.logCycle(silent, "refreshing offline channels", logger.Int("batch", len(offline)))

	recovered := 0
	for i, ch := range offline {
		if ctx.Err() != nil {
			return
		}
		// One probe at a time with a pause keeps the refresher from looking
		// like a scraper to upstreams.
		if i > 0 {
			timer := time.NewTimer(r.pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		online := r.check(ctx, ch)
		if err := r.store.SetChannelStatus(ctx, redisstore.ChannelStatus{
			Channel:   ch,
			Online:    online,
			CheckedAt: time.Now(),
		}); err != nil {
			r.logger.Warn("updating channel status failed",
				logger.String("channel", ch.Identity), logger.Error(err))
			continue
		}
		if online {
			recovered++
			r.logCycle(silent, "channel back online", logger.String("channel", ch.Name))
			r.notify(ch)
		}
	}

	r.logCycle(silent, "refresh cycle finished",
		logger.Int("checked", len(offline)),
		logger.Int("recovered", recovered),
	)
}

// check probes whether the channel serves bytes again. It goes through the
// best relay so the upstream never sees the refresher's own address; direct
// is the fallback when no relay is eligible.
func (r *Refresher) check(ctx context.Context, ch domain.Channel) bool {
	if px, ok := r.pool.Best(ch.URL); ok {
		return r.racer.Probe(ctx, px, ch.URL).Success
	}
	return r.racer.FetchDirect(ctx, ch.URL).Success
}

func (r *Refresher) notify(ch domain.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subscribers {
		select {
		case sub <- ch:
		default:
		}
	}
}

func (r *Refresher) logCycle(silent bool, msg string, fields ...logger.Field) {
	if silent {
		r.logger.Debug(msg, fields...)
		return
	}
	r.logger.Info(msg, fields...)
}
