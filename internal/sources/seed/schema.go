package seed

import "streamsalvage/internal/domain"

// ProxyFile is the top-level structure of proxies.yaml.
type ProxyFile struct {
	Proxies []domain.Proxy `yaml:"proxies"`
}

// AlternateFile is the top-level structure of alternates.yaml.
// Curated alternates are keyed by channel identity.
type AlternateFile struct {
	Channels []CuratedChannel `yaml:"channels"`
}

// CuratedChannel groups the curated alternates for one channel.
type CuratedChannel struct {
	Identity   string             `yaml:"identity"`
	Alternates []CuratedAlternate `yaml:"alternates"`
}

// CuratedAlternate is one vetted replacement URL with its observed
// success rate over curation probes.
type CuratedAlternate struct {
	URL         string  `yaml:"url"`
	SuccessRate float64 `yaml:"success_rate"`
}
