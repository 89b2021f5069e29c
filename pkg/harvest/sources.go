package harvest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source is one remote catalog endpoint harvested on its own schedule.
type Source struct {
	Name  string
	URL   string
	Every time.Duration
}

type sourceSpec struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Every string `yaml:"every"`
}

type sourcesFile struct {
	Sources []sourceSpec `yaml:"sources"`
}

// LoadSources reads the harvest source definitions from a YAML file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	seen := map[string]bool{}
	sources := make([]Source, 0, len(file.Sources))
	for i, spec := range file.Sources {
		if spec.Name == "" {
			return nil, fmt.Errorf("source #%d has no name", i+1)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate source name %q", spec.Name)
		}
		seen[spec.Name] = true

		if spec.URL == "" {
			return nil, fmt.Errorf("source %q has no url", spec.Name)
		}
		if spec.Every == "" {
			return nil, fmt.Errorf("source %q has no harvest interval", spec.Name)
		}
		every, err := time.ParseDuration(spec.Every)
		if err != nil {
			return nil, fmt.Errorf("source %q has an invalid harvest interval: %w", spec.Name, err)
		}
		if every <= 0 {
			return nil, fmt.Errorf("source %q harvest interval must be positive", spec.Name)
		}

		sources = append(sources, Source{Name: spec.Name, URL: spec.URL, Every: every})
	}

	return sources, nil
}
