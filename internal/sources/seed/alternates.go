package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"streamsalvage/internal/domain"
)

// LoadAlternates reads the curated alternates table from a YAML file,
// keyed by channel identity. An empty path yields an empty table.
func LoadAlternates(path string) (map[string][]domain.Alternate, error) {
	if path == "" {
		return map[string][]domain.Alternate{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alternates file: %w", err)
	}

	var file AlternateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse alternates yaml: %w", err)
	}

	table := make(map[string][]domain.Alternate, len(file.Channels))
	for _, ch := range file.Channels {
		if ch.Identity == "" {
			return nil, fmt.Errorf("curated channel entry missing identity")
		}
		for _, alt := range ch.Alternates {
			if alt.URL == "" {
				return nil, fmt.Errorf("curated alternate for %s missing url", ch.Identity)
			}
			table[ch.Identity] = append(table[ch.Identity], domain.Alternate{
				Channel:     ch.Identity,
				URL:         alt.URL,
				SuccessRate: alt.SuccessRate,
			})
		}
	}

	return table, nil
}
