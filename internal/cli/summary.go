package cli

import (
	"time"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/registry"
)

// commandSummary is the JSON shape of a listed command.
type commandSummary struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Namespace   string         `json:"namespace,omitempty"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags,omitempty"`
	Args        string         `json:"args,omitempty"`
	Type        string         `json:"type,omitempty"`
	Path        string         `json:"path,omitempty"`
	Source      command.Source `json:"source"`
	UseCount    int            `json:"use_count"`
	LastUsed    *time.Time     `json:"last_used,omitempty"`
}

func summarize(e registry.Entry) commandSummary {
	c := e.Command
	return commandSummary{
		Key:         c.Key(),
		Name:        c.Name,
		Namespace:   c.Namespace,
		Version:     c.Version,
		Description: c.Description,
		Tags:        c.Metadata.Tags,
		Args:        c.ArgumentString(),
		Type:        c.Type(),
		Path:        c.Path,
		Source:      c.Source,
		UseCount:    e.UseCount,
		LastUsed:    e.LastUsed,
	}
}

func summarizeAll(entries []registry.Entry) []commandSummary {
	out := make([]commandSummary, len(entries))
	for i, e := range entries {
		out[i] = summarize(e)
	}
	return out
}
