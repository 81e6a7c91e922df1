package seed

import (
	"os"
	"path/filepath"
	"testing"

	"streamsalvage/internal/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadProxiesDefaults(t *testing.T) {
	proxies, err := LoadProxies("")
	if err != nil {
		t.Fatalf("LoadProxies(\"\") error = %v", err)
	}
	if len(proxies) == 0 {
		t.Fatal("LoadProxies(\"\") returned no built-in proxies")
	}
	for _, p := range proxies {
		if p.Name == "" || p.URLTemplate == "" {
			t.Errorf("built-in proxy has empty fields: %+v", p)
		}
	}
}

func TestLoadProxiesFromFile(t *testing.T) {
	path := writeTemp(t, "proxies.yaml", `
proxies:
  - name: RegionalRelay
    url_template: "https://relay.cn.example/fetch?url={url}"
    priority: 1
    scope: restricted
    daily_limit: 100
  - name: OpenRelay
    url_template: "https://open.example/"
    priority: 2
`)

	proxies, err := LoadProxies(path)
	if err != nil {
		t.Fatalf("LoadProxies() error = %v", err)
	}
	if len(proxies) != 2 {
		t.Fatalf("LoadProxies() returned %d proxies, want 2", len(proxies))
	}
	if proxies[0].Scope != domain.ScopeRestricted {
		t.Errorf("first proxy scope = %v, want restricted", proxies[0].Scope)
	}
	if proxies[0].DailyLimit != 100 {
		t.Errorf("first proxy daily limit = %d, want 100", proxies[0].DailyLimit)
	}
	// Unset scope defaults to global.
	if proxies[1].Scope != domain.ScopeGlobal {
		t.Errorf("second proxy scope = %v, want global default", proxies[1].Scope)
	}
}

func TestLoadProxiesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "proxies:\n  - url_template: \"https://x/\"\n"},
		{"missing template", "proxies:\n  - name: X\n"},
		{"empty roster", "proxies: []\n"},
		{"broken yaml", "proxies: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "proxies.yaml", tt.content)
			if _, err := LoadProxies(path); err == nil {
				t.Error("LoadProxies() expected error, got nil")
			}
		})
	}
}

func TestLoadAlternates(t *testing.T) {
	path := writeTemp(t, "alternates.yaml", `
channels:
  - identity: news-24
    alternates:
      - url: "http://mirror-a.example/news24.m3u8"
        success_rate: 0.9
      - url: "http://mirror-b.example/news24.m3u8"
        success_rate: 0.4
`)

	table, err := LoadAlternates(path)
	if err != nil {
		t.Fatalf("LoadAlternates() error = %v", err)
	}
	alts := table["news-24"]
	if len(alts) != 2 {
		t.Fatalf("LoadAlternates() returned %d alternates, want 2", len(alts))
	}
	if alts[0].SuccessRate != 0.9 {
		t.Errorf("first alternate success rate = %v, want 0.9", alts[0].SuccessRate)
	}
	if alts[0].Channel != "news-24" {
		t.Errorf("alternate channel = %q, want news-24", alts[0].Channel)
	}
}

func TestLoadAlternatesEmptyPath(t *testing.T) {
	table, err := LoadAlternates("")
	if err != nil {
		t.Fatalf("LoadAlternates(\"\") error = %v", err)
	}
	if len(table) != 0 {
		t.Errorf("LoadAlternates(\"\") returned %d entries, want 0", len(table))
	}
}
