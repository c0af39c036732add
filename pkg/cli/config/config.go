package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SourceList is the on-disk source list. In TOML each entry is a [[source]]
// table; in YAML it is a "source" sequence.
type SourceList struct {
	Sources []SourceEntry `toml:"source" yaml:"source"`
}

// SourceEntry is one source as written in the file. Enabled defaults to
// true when omitted.
type SourceEntry struct {
	Name      string          `toml:"name" yaml:"name"`
	Type      string          `toml:"type" yaml:"type"`
	URL       string          `toml:"url" yaml:"url"`
	Enabled   *bool           `toml:"enabled" yaml:"enabled"`
	Selectors model.Selectors `toml:"selectors" yaml:"selectors"`
}

// ToSource converts the entry to a domain source
func (e *SourceEntry) ToSource() *model.Source {
	enabled := true
	if e.Enabled != nil {
		enabled = *e.Enabled
	}
	return &model.Source{
		Name:      e.Name,
		Type:      types.SourceType(e.Type).Normalize(),
		URL:       e.URL,
		Enabled:   enabled,
		Selectors: e.Selectors,
	}
}

// Validate checks every source and rejects duplicate names
func (s *SourceList) Validate() error {
	names := make(map[string]bool)
	for i, entry := range s.Sources {
		src := entry.ToSource()
		if err := src.Validate(); err != nil {
			return goerr.Wrap(err, "invalid source", goerr.V(SourceIdxKey, i))
		}
		if src.Name != "" {
			if names[src.Name] {
				return goerr.Wrap(ErrInvalidConfig, "duplicate source name", goerr.V("name", src.Name))
			}
			names[src.Name] = true
		}
	}
	return nil
}

// LoadSources reads a source list from a TOML or YAML file, chosen by
// extension.
func LoadSources(path string) ([]*model.Source, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read source list", goerr.V(ConfigPathKey, path))
	}

	var list SourceList
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &list); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML source list", goerr.V(ConfigPathKey, path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML source list", goerr.V(ConfigPathKey, path))
		}
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "source list must be .toml, .yaml or .yml", goerr.V(ConfigPathKey, path))
	}

	if err := list.Validate(); err != nil {
		return nil, goerr.Wrap(err, "source list validation failed", goerr.V(ConfigPathKey, path))
	}

	sources := make([]*model.Source, 0, len(list.Sources))
	for _, entry := range list.Sources {
		sources = append(sources, entry.ToSource())
	}
	return sources, nil
}
