package config

import (
	"fmt"
	"strings"
)

// SourceConfig is one configured remote collection.
type SourceConfig struct {
	// Type is git, local, or archive.
	Type string `toml:"type" json:"type"`
	URL  string `toml:"url,omitempty" json:"url,omitempty"`
	Path string `toml:"path,omitempty" json:"path,omitempty"`
}

// Locator returns the URL or path, whichever is set.
func (s SourceConfig) Locator() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// Matches reports whether ref names this source by URL or path.
func (s SourceConfig) Matches(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref != "" && (s.URL == ref || s.Path == ref)
}

func (s SourceConfig) sameAs(other SourceConfig) bool {
	return s.URL == other.URL && s.Path == other.Path
}

// AddSource appends src unless a source with the same url and path exists.
// It reports whether the list changed.
func (c *Config) AddSource(src SourceConfig) (bool, error) {
	src.Type = strings.TrimSpace(src.Type)
	src.URL = strings.TrimSpace(src.URL)
	src.Path = strings.TrimSpace(src.Path)

	switch src.Type {
	case "git", "archive":
		if src.URL == "" {
			return false, fmt.Errorf("%s source requires a url", src.Type)
		}
	case "local":
		if src.Path == "" {
			return false, fmt.Errorf("local source requires a path")
		}
	default:
		return false, fmt.Errorf("unsupported source type %q (want git, local, or archive)", src.Type)
	}

	for _, existing := range c.Sources {
		if existing.sameAs(src) {
			return false, nil
		}
	}
	c.Sources = append(c.Sources, src)
	return true, nil
}

// RemoveSource drops every source matching ref by URL or path.
// It returns the number removed.
func (c *Config) RemoveSource(ref string) int {
	kept := c.Sources[:0]
	removed := 0
	for _, s := range c.Sources {
		if s.Matches(ref) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	c.Sources = kept
	return removed
}

// SelectSources returns the sources matching any ref, or all when refs is empty.
func (c *Config) SelectSources(refs []string) []SourceConfig {
	if len(refs) == 0 {
		return append([]SourceConfig(nil), c.Sources...)
	}
	var out []SourceConfig
	for _, s := range c.Sources {
		for _, ref := range refs {
			if s.Matches(ref) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
