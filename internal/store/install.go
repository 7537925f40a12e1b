package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/DreamCats/opencommands/internal/atomicfile"
	"github.com/DreamCats/opencommands/internal/command"
)

// Install operations.
const (
	OpCreate    = "create"
	OpUnchanged = "unchanged"
	OpOverwrite = "overwrite"
	OpConflict  = "conflict"
)

// ErrPlanConflicts is returned when applying a plan that still has conflicts.
var ErrPlanConflicts = errors.New("install plan has conflicts")

// Action is the planned outcome for one command.
type Action struct {
	Op      string           `json:"op"`
	Key     string           `json:"key"`
	Path    string           `json:"path"`
	Reason  string           `json:"reason,omitempty"`
	Command *command.Command `json:"-"`

	rendered []byte
}

// InstallPlan lists what installing a set of commands into Dir would do.
type InstallPlan struct {
	Dir       string   `json:"dir"`
	Actions   []Action `json:"actions"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// Pending returns the number of writes the plan would perform.
func (p *InstallPlan) Pending() int {
	n := 0
	for _, a := range p.Actions {
		if a.Op == OpCreate || a.Op == OpOverwrite {
			n++
		}
	}
	return n
}

// Fingerprint hashes a rendered document.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// PlanInstall decides, per command, whether installing into dir creates a
// file, leaves an identical file alone, or collides with different content.
// With force, collisions become overwrites.
func PlanInstall(cmds []*command.Command, dir string, force bool) (*InstallPlan, error) {
	plan := &InstallPlan{Dir: dir}
	seen := make(map[string]bool)

	for _, cmd := range cmds {
		path := TargetPath(dir, cmd)
		if seen[path] {
			return nil, fmt.Errorf("two commands resolve to %s", path)
		}
		seen[path] = true

		rendered := []byte(Render(cmd))
		action := Action{Key: cmd.Key(), Path: path, Command: cmd, rendered: rendered}

		existing, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			action.Op = OpCreate
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", path, err)
		case Fingerprint(existing) == Fingerprint(rendered):
			action.Op = OpUnchanged
		case force:
			action.Op = OpOverwrite
		default:
			action.Op = OpConflict
			action.Reason = "file exists with different content"
			plan.Conflicts = append(plan.Conflicts, path)
		}
		plan.Actions = append(plan.Actions, action)
	}
	return plan, nil
}

// ApplyInstall writes every create and overwrite action and returns the
// number of files written.
func ApplyInstall(plan *InstallPlan) (int, error) {
	if plan == nil {
		return 0, fmt.Errorf("install plan is nil")
	}
	if len(plan.Conflicts) > 0 {
		return 0, ErrPlanConflicts
	}

	written := 0
	for _, a := range plan.Actions {
		if a.Op != OpCreate && a.Op != OpOverwrite {
			continue
		}
		if err := atomicfile.WriteFile(a.Path, a.rendered, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", a.Path, err)
		}
		written++
	}
	return written, nil
}
