// Package reconcile diffs a local command collection against remote ones and
// applies the changes an operator selects.
package reconcile

import (
	"github.com/DreamCats/opencommands/internal/command"
)

// Action is the kind of change a candidate proposes.
type Action string

const (
	ActionUpdate Action = "update"
	ActionNew    Action = "new"
)

// Candidate is one proposed change.
type Candidate struct {
	Action     Action           `json:"action"`
	Command    *command.Command `json:"command"`
	Source     string           `json:"source"`
	OldVersion string           `json:"old_version,omitempty"`
	NewVersion string           `json:"new_version"`
}

// Key returns the identity key of the proposed command.
func (c Candidate) Key() string {
	return c.Command.Key()
}

// Remote is one fetched collection, labeled for display.
type Remote struct {
	Label    string
	Commands []*command.Command
}

// Plan compares local against each remote in order.
//
// A remote command matching a local one by exact name and namespace yields
// an update when the version strings differ; an unmatched one yields a new
// candidate. Versions are compared as plain strings with empty treated as
// the default version.
func Plan(local []*command.Command, remotes []Remote) []Candidate {
	byKey := make(map[string]*command.Command, len(local))
	for _, c := range local {
		byKey[c.Key()] = c
	}

	var out []Candidate
	for _, remote := range remotes {
		for _, rc := range remote.Commands {
			lc, ok := byKey[rc.Key()]
			newVersion := versionOf(rc)
			switch {
			case !ok:
				out = append(out, Candidate{
					Action:     ActionNew,
					Command:    rc,
					Source:     remote.Label,
					NewVersion: newVersion,
				})
			case versionOf(lc) != newVersion:
				out = append(out, Candidate{
					Action:     ActionUpdate,
					Command:    rc,
					Source:     remote.Label,
					OldVersion: versionOf(lc),
					NewVersion: newVersion,
				})
			}
		}
	}
	return out
}

func versionOf(c *command.Command) string {
	if c.Version == "" {
		return command.DefaultVersion
	}
	return c.Version
}
