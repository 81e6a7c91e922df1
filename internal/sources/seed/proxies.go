package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"streamsalvage/internal/domain"
)

// DefaultProxies is the built-in relay roster used when no proxies.yaml is
// configured. Names and priorities mirror the public CORS relay services
// the resolver was tuned against.
func DefaultProxies() []domain.Proxy {
	return []domain.Proxy{
		{
			Name:        "AllOrigins",
			URLTemplate: "https://api.allorigins.win/raw?url={url}",
			Priority:    1,
			Scope:       domain.ScopeGlobal,
			Features:    []string{"cors", "raw"},
		},
		{
			Name:        "CorsProxyIO",
			URLTemplate: "https://corsproxy.io/?{url}",
			Priority:    2,
			Scope:       domain.ScopeGlobal,
			Features:    []string{"cors"},
		},
		{
			Name:        "CodeTabs",
			URLTemplate: "https://api.codetabs.com/v1/proxy?quest={url}",
			Priority:    3,
			Scope:       domain.ScopeGlobal,
			Features:    []string{"cors"},
			DailyLimit:  500,
		},
		{
			Name:        "ThingProxy",
			URLTemplate: "https://thingproxy.freeboard.io/fetch/",
			Priority:    4,
			Scope:       domain.ScopeGlobal,
			Features:    []string{"cors", "prefix"},
			DailyLimit:  300,
		},
	}
}

// LoadProxies reads the relay roster from a YAML file. An empty path
// returns the built-in defaults.
func LoadProxies(path string) ([]domain.Proxy, error) {
	if path == "" {
		return DefaultProxies(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy file: %w", err)
	}

	var file ProxyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse proxy yaml: %w", err)
	}

	proxies := make([]domain.Proxy, 0, len(file.Proxies))
	for _, p := range file.Proxies {
		if p.Name == "" || p.URLTemplate == "" {
			return nil, fmt.Errorf("proxy entry missing name or url_template: %+v", p)
		}
		if p.Scope == "" {
			p.Scope = domain.ScopeGlobal
		}
		proxies = append(proxies, p)
	}
	if len(proxies) == 0 {
		return nil, fmt.Errorf("proxy file %s defines no proxies", path)
	}

	return proxies, nil
}
