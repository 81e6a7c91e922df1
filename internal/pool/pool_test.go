package pool

import (
	"sync"
	"testing"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
)

func testPool(markers []string) *Pool {
	return New(logger.New("error", false), markers)
}

func register(p *Pool, name string, prio int, scope domain.ProxyScope, limit int) {
	p.Register(domain.Proxy{
		Name:        name,
		URLTemplate: "https://" + name + ".example/fetch?url={url}",
		Priority:    prio,
		Scope:       scope,
		DailyLimit:  limit,
	})
}

func TestHealthStaysClampedUnderConcurrentFeedback(t *testing.T) {
	p := testPool(nil)
	register(p, "relay", 1, domain.ScopeGlobal, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if (n+j)%2 == 0 {
					p.ReportSuccess("relay", 100*time.Millisecond)
				} else {
					p.ReportFailure("relay", domain.ErrClassTimeout)
				}
			}
		}(i)
	}
	wg.Wait()

	health, ok := p.Health("relay")
	if !ok {
		t.Fatal("relay disappeared from pool")
	}
	if health < domain.HealthMin || health > domain.HealthMax {
		t.Errorf("health = %v, want within [%v, %v]", health, domain.HealthMin, domain.HealthMax)
	}
}

func TestSelectionNeverReturnsUnhealthyProxy(t *testing.T) {
	p := testPool(nil)
	register(p, "healthy", 1, domain.ScopeGlobal, 0)
	register(p, "sick", 1, domain.ScopeGlobal, 0)

	// Drive "sick" below the selection floor.
	for i := 0; i < 10; i++ {
		p.ReportFailure("sick", domain.ErrClassTimeout)
	}
	if health, _ := p.Health("sick"); health >= domain.HealthFloor {
		t.Fatalf("setup failed, sick health = %v", health)
	}

	for _, proxy := range p.Eligible("http://example.com/a.m3u8") {
		if proxy.Name == "sick" {
			t.Error("Eligible() returned a relay below the health floor")
		}
	}
}

func TestSelectionRespectsDailyLimit(t *testing.T) {
	p := testPool(nil)
	register(p, "limited", 1, domain.ScopeGlobal, 2)
	register(p, "open", 2, domain.ScopeGlobal, 0)

	p.RecordUse("limited")
	p.RecordUse("limited")

	for _, proxy := range p.Eligible("http://example.com/a.m3u8") {
		if proxy.Name == "limited" {
			t.Error("Eligible() returned a relay with an exhausted daily limit")
		}
	}
}

func TestSelectionScopeFilter(t *testing.T) {
	p := testPool([]string{"cdn.example.cn"})
	register(p, "global", 1, domain.ScopeGlobal, 0)
	register(p, "regional", 1, domain.ScopeRestricted, 0)

	tests := []struct {
		name       string
		target     string
		wantNames  map[string]bool
		wantLength int
	}{
		{
			name:       "plain target excludes restricted relay",
			target:     "http://stream.example.com/a.m3u8",
			wantNames:  map[string]bool{"global": true},
			wantLength: 1,
		},
		{
			name:       "restricted target includes both",
			target:     "http://cdn.example.cn/live/a.m3u8",
			wantNames:  map[string]bool{"global": true, "regional": true},
			wantLength: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eligible := p.Eligible(tt.target)
			if len(eligible) != tt.wantLength {
				t.Fatalf("Eligible() returned %d relays, want %d", len(eligible), tt.wantLength)
			}
			for _, proxy := range eligible {
				if !tt.wantNames[proxy.Name] {
					t.Errorf("Eligible() returned unexpected relay %q", proxy.Name)
				}
			}
		})
	}
}

func TestNotFoundDoesNotPenalizeProxy(t *testing.T) {
	p := testPool(nil)
	register(p, "relay", 1, domain.ScopeGlobal, 0)

	before, _ := p.Health("relay")
	p.ReportFailure("relay", domain.ErrClassNotFound)
	after, _ := p.Health("relay")

	if after != before {
		t.Errorf("not-found failure changed health from %v to %v", before, after)
	}
}

func TestFailurePenaltyOrdering(t *testing.T) {
	classes := []struct {
		class domain.ErrorClass
		want  float64
	}{
		{domain.ErrClassTimeout, penaltyTimeout},
		{domain.ErrClassNetwork, penaltyNetwork},
		{domain.ErrClassForbidden, penaltyForbidden},
		{domain.ErrClassNotFound, 0},
		{domain.ErrClassUnknown, penaltyUnknown},
	}

	prev := penaltyFor(domain.ErrClassTimeout) + 1
	for _, tt := range []domain.ErrorClass{domain.ErrClassTimeout, domain.ErrClassNetwork, domain.ErrClassForbidden} {
		got := penaltyFor(tt)
		if got >= prev {
			t.Errorf("penaltyFor(%v) = %v, want strictly decreasing", tt, got)
		}
		prev = got
	}

	for _, tt := range classes {
		if got := penaltyFor(tt.class); got != tt.want {
			t.Errorf("penaltyFor(%v) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestSuccessClearsFailureStreak(t *testing.T) {
	p := testPool(nil)
	register(p, "relay", 1, domain.ScopeGlobal, 0)

	p.ReportFailure("relay", domain.ErrClassNetwork)
	p.ReportFailure("relay", domain.ErrClassNetwork)
	p.ReportSuccess("relay", 100*time.Millisecond)

	snap := p.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d entries, want 1", len(snap))
	}
	if snap[0].FailStreak != 0 {
		t.Errorf("FailStreak = %d after success, want 0", snap[0].FailStreak)
	}
}

func TestFasterLatencyRecoversMore(t *testing.T) {
	if recoveryFor(100*time.Millisecond) <= recoveryFor(2*time.Second) {
		t.Error("fast responses should recover more health than slow ones")
	}
	if recoveryFor(500*time.Millisecond) <= recoveryFor(5*time.Second) {
		t.Error("sub-second responses should recover more health than crawling ones")
	}
}

func TestEligibleOrderingPrefersHealthAndPriority(t *testing.T) {
	p := testPool(nil)
	register(p, "slowbad", 5, domain.ScopeGlobal, 0)
	register(p, "good", 1, domain.ScopeGlobal, 0)

	// Same initial health: priority must decide.
	eligible := p.Eligible("http://example.com/a.m3u8")
	if len(eligible) != 2 || eligible[0].Name != "good" {
		t.Fatalf("Eligible() order = %v, want good first", names(eligible))
	}

	// Tank "good" so health dominates.
	for i := 0; i < 4; i++ {
		p.ReportFailure("good", domain.ErrClassTimeout)
	}
	eligible = p.Eligible("http://example.com/a.m3u8")
	if len(eligible) == 0 || eligible[0].Name != "slowbad" {
		t.Fatalf("Eligible() order = %v, want slowbad first after failures", names(eligible))
	}
}

func TestTieBreakByRegistrationOrder(t *testing.T) {
	p := testPool(nil)
	register(p, "first", 1, domain.ScopeGlobal, 0)
	register(p, "second", 1, domain.ScopeGlobal, 0)

	eligible := p.Eligible("http://example.com/a.m3u8")
	if len(eligible) != 2 {
		t.Fatalf("Eligible() returned %d relays, want 2", len(eligible))
	}
	if eligible[0].Name != "first" {
		t.Errorf("tie should break by registration order, got %q first", eligible[0].Name)
	}
}

func TestRemove(t *testing.T) {
	p := testPool(nil)
	register(p, "relay", 1, domain.ScopeGlobal, 0)
	p.Remove("relay")

	if p.Count() != 0 {
		t.Errorf("Count() = %d after Remove, want 0", p.Count())
	}
	if _, ok := p.Health("relay"); ok {
		t.Error("Health() found a removed relay")
	}
}

func names(proxies []domain.Proxy) []string {
	out := make([]string, len(proxies))
	for i, p := range proxies {
		out[i] = p.Name
	}
	return out
}
