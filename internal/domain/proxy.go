package domain

import (
	"net/url"
	"strings"
)

// ProxyScope describes which targets a relay may be used for.
type ProxyScope string

const (
	// ScopeGlobal relays accept any target.
	ScopeGlobal ProxyScope = "global"
	// ScopeRestricted relays only work for targets inside their region
	// (hosts matching the configured restricted markers).
	ScopeRestricted ProxyScope = "restricted"
)

// Health score bounds. The score is a bounded heuristic, not a hard SLA.
const (
	HealthMin     = 0.0
	HealthMax     = 100.0
	HealthInitial = 70.0
	// HealthFloor is the minimum score a relay needs to stay selectable.
	HealthFloor = 20.0
)

// Proxy describes one relay intermediary as configured at startup.
// Live state (health, failure streak, daily usage) belongs to the pool.
type Proxy struct {
	Name string `json:"name" yaml:"name"`

	// URLTemplate builds the relayed request URL. A literal "{url}" is
	// replaced with the percent-encoded target; without the placeholder
	// the raw target is appended.
	URLTemplate string `json:"url_template" yaml:"url_template"`

	// Priority orders relays for selection; lower is preferred.
	Priority int `json:"priority" yaml:"priority"`

	Scope ProxyScope `json:"scope" yaml:"scope"`

	// Features are free-form capability tags ("cors", "m3u8-rewrite", ...).
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`

	// DailyLimit caps relayed requests per UTC day. Zero means unlimited.
	DailyLimit int `json:"daily_limit,omitempty" yaml:"daily_limit,omitempty"`
}

// BuildURL expands the relay template for the given target.
func (p Proxy) BuildURL(target string) string {
	if strings.Contains(p.URLTemplate, "{url}") {
		return strings.ReplaceAll(p.URLTemplate, "{url}", url.QueryEscape(target))
	}
	return p.URLTemplate + target
}
