package pool

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
)

// Scoring weights and feedback amounts. Health is a bounded heuristic;
// these constants shape how fast it moves, not hard guarantees.
const (
	weightHealth   = 0.7
	weightPriority = 0.3

	failStreakPenalty    = 5.0
	failStreakPenaltyCap = 30.0

	// Success recovery tiers by observed latency.
	recoverFast   = 15.0 // < 300ms
	recoverNormal = 10.0 // < 1s
	recoverSlow   = 5.0  // < 3s
	recoverCrawl  = 2.0  // anything slower

	// Failure penalties by error class. Not-found is deliberately zero:
	// a 404 means the destination is gone, not that the relay is broken.
	penaltyTimeout   = 25.0
	penaltyNetwork   = 15.0
	penaltyForbidden = 5.0
	penaltyUnknown   = 10.0
)

// entry holds one relay plus its live, pool-owned state.
type entry struct {
	proxy       domain.Proxy
	order       int // registration order, stable tie-break
	health      float64
	failStreak  int
	usedToday   int
	dayKey      string // UTC day the usage counter belongs to
	lastLatency time.Duration
	lastProbe   time.Time
}

// Status is a read-only snapshot of one relay for diagnostics.
type Status struct {
	Proxy       domain.Proxy  `json:"proxy"`
	Health      float64       `json:"health"`
	FailStreak  int           `json:"fail_streak"`
	UsedToday   int           `json:"used_today"`
	LastLatency time.Duration `json:"last_latency"`
	LastProbe   time.Time     `json:"last_probe,omitempty"`
}

// Pool is the owning registry of relay intermediaries. All mutation goes
// through its methods; the mutex makes concurrent feedback writers safe.
type Pool struct {
	mu                sync.Mutex
	logger            logger.Logger
	restrictedMarkers []string
	entries           []*entry
	byName            map[string]*entry
	nextOrder         int
}

// New creates an empty pool. restrictedMarkers are host/IP fragments that
// put a target URL into restricted scope.
func New(log logger.Logger, restrictedMarkers []string) *Pool {
	return &Pool{
		logger:            log,
		restrictedMarkers: restrictedMarkers,
		byName:            make(map[string]*entry),
	}
}

// Register adds a relay with the initial health score. Re-registering an
// existing name replaces its definition but keeps the live state.
func (p *Pool) Register(proxy domain.Proxy) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.byName[proxy.Name]; ok {
		e.proxy = proxy
		return
	}

	e := &entry{
		proxy:  proxy,
		order:  p.nextOrder,
		health: domain.HealthInitial,
		dayKey: dayKey(time.Now()),
	}
	p.nextOrder++
	p.entries = append(p.entries, e)
	p.byName[proxy.Name] = e
}

// Remove deletes a relay by name.
func (p *Pool) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byName[name]
	if !ok {
		return
	}
	delete(p.byName, name)
	for i, cur := range p.entries {
		if cur == e {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
}

// Eligible returns relays usable for the target, best-scored first.
// Filters: scope compatibility, health >= floor, daily limit not exhausted.
// Ties break by registration order (sort is stable and entries are kept in
// registration order).
func (p *Pool) Eligible(target string) []domain.Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()

	restricted := p.isRestrictedLocked(target)
	now := time.Now()

	var candidates []*entry
	for _, e := range p.entries {
		if e.proxy.Scope == domain.ScopeRestricted && !restricted {
			continue
		}
		if e.health < domain.HealthFloor {
			continue
		}
		if e.proxy.DailyLimit > 0 {
			e.rollDay(now)
			if e.usedToday >= e.proxy.DailyLimit {
				continue
			}
		}
		candidates = append(candidates, e)
	}

	minPrio, maxPrio := priorityRange(candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		return score(candidates[i], minPrio, maxPrio) > score(candidates[j], minPrio, maxPrio)
	})

	out := make([]domain.Proxy, len(candidates))
	for i, e := range candidates {
		out[i] = e.proxy
	}
	return out
}

// Best returns the single highest-scored eligible relay for the target.
func (p *Pool) Best(target string) (domain.Proxy, bool) {
	eligible := p.Eligible(target)
	if len(eligible) == 0 {
		return domain.Proxy{}, false
	}
	return eligible[0], true
}

// RecordUse consumes one unit of the relay's daily budget.
func (p *Pool) RecordUse(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byName[name]
	if !ok {
		return
	}
	e.rollDay(time.Now())
	e.usedToday++
}

// ReportSuccess clears the failure streak and recovers health by a
// latency-tiered amount, capped at the maximum.
func (p *Pool) ReportSuccess(name string, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byName[name]
	if !ok {
		return
	}

	e.failStreak = 0
	e.lastLatency = latency
	e.health = clamp(e.health + recoveryFor(latency))

	p.logger.Debug("relay feedback: success",
		logger.String("proxy", name),
		logger.Duration("latency", latency),
		logger.Float64("health", e.health))
}

// ReportFailure penalizes health by the class-keyed amount and bumps the
// failure streak. Not-found never penalizes the relay.
func (p *Pool) ReportFailure(name string, class domain.ErrorClass) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byName[name]
	if !ok {
		return
	}

	penalty := penaltyFor(class)
	if penalty == 0 {
		return
	}

	e.failStreak++
	e.health = clamp(e.health - penalty)

	p.logger.Debug("relay feedback: failure",
		logger.String("proxy", name),
		logger.String("class", string(class)),
		logger.Float64("health", e.health),
		logger.Int("streak", e.failStreak))
}

// RecordProbe recalibrates a relay from an active health probe,
// independent of organic traffic.
func (p *Pool) RecordProbe(name string, success bool, latency time.Duration, class domain.ErrorClass) {
	p.mu.Lock()
	if e, ok := p.byName[name]; ok {
		e.lastProbe = time.Now()
	} else {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if success {
		p.ReportSuccess(name, latency)
		return
	}
	p.ReportFailure(name, class)
}

// Health returns the current health score for a relay.
func (p *Pool) Health(name string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byName[name]
	if !ok {
		return 0, false
	}
	return e.health, true
}

// Snapshot returns relays in registration order with their live state.
func (p *Pool) Snapshot() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Status, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, Status{
			Proxy:       e.proxy,
			Health:      e.health,
			FailStreak:  e.failStreak,
			UsedToday:   e.usedToday,
			LastLatency: e.lastLatency,
			LastProbe:   e.lastProbe,
		})
	}
	return out
}

// Count returns the number of registered relays.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Names returns registered relay names in registration order.
func (p *Pool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.proxy.Name)
	}
	return names
}

func (p *Pool) isRestrictedLocked(target string) bool {
	if len(p.restrictedMarkers) == 0 {
		return false
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, marker := range p.restrictedMarkers {
		if strings.Contains(host, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func (e *entry) rollDay(now time.Time) {
	key := dayKey(now)
	if e.dayKey != key {
		e.dayKey = key
		e.usedToday = 0
	}
}

func dayKey(t time.Time) string {
	y, m, d := t.UTC().Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// score combines health, normalized priority and the recent-failure penalty.
func score(e *entry, minPrio, maxPrio int) float64 {
	return weightHealth*e.health + weightPriority*normalizedPriority(e.proxy.Priority, minPrio, maxPrio) - streakPenalty(e.failStreak)
}

// normalizedPriority maps the candidate set's priorities onto [0,100]
// with the lowest (most preferred) priority scoring highest.
func normalizedPriority(prio, minPrio, maxPrio int) float64 {
	if maxPrio == minPrio {
		return 100.0
	}
	return 100.0 * float64(maxPrio-prio) / float64(maxPrio-minPrio)
}

func priorityRange(entries []*entry) (minPrio, maxPrio int) {
	if len(entries) == 0 {
		return 0, 0
	}
	minPrio, maxPrio = entries[0].proxy.Priority, entries[0].proxy.Priority
	for _, e := range entries[1:] {
		if e.proxy.Priority < minPrio {
			minPrio = e.proxy.Priority
		}
		if e.proxy.Priority > maxPrio {
			maxPrio = e.proxy.Priority
		}
	}
	return minPrio, maxPrio
}

func streakPenalty(streak int) float64 {
	penalty := float64(streak) * failStreakPenalty
	if penalty > failStreakPenaltyCap {
		return failStreakPenaltyCap
	}
	return penalty
}

func recoveryFor(latency time.Duration) float64 {
	switch {
	case latency < 300*time.Millisecond:
		return recoverFast
	case latency < time.Second:
		return recoverNormal
	case latency < 3*time.Second:
		return recoverSlow
	default:
		return recoverCrawl
	}
}

func penaltyFor(class domain.ErrorClass) float64 {
	switch class {
	case domain.ErrClassTimeout:
		return penaltyTimeout
	case domain.ErrClassNetwork:
		return penaltyNetwork
	case domain.ErrClassForbidden:
		return penaltyForbidden
	case domain.ErrClassNotFound:
		return 0
	default:
		return penaltyUnknown
	}
}

func clamp(health float64) float64 {
	if health < domain.HealthMin {
		return domain.HealthMin
	}
	if health > domain.HealthMax {
		return domain.HealthMax
	}
	return health
}
