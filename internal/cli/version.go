package cli

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/buildinfo"
	"github.com/DreamCats/opencommands/internal/ui"
)

const (
	defaultModulePath = "github.com/DreamCats/opencommands"
	develVersion      = "devel"
	sqliteModulePath  = "modernc.org/sqlite"
)

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
	// SQLite is the history driver version linked into the binary.
	SQLite string `json:"sqlite,omitempty"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:  "version",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		op := baseOperation(cmd)
		info := currentVersionInfo()
		if op.json {
			return op.success(info, 1)
		}

		op.printf("ocmd %s\n", ui.Bold.Render(info.Version))
		t := ui.NewTable(2)
		t.SetIndent("  ")
		row := func(label, value string) {
			if value != "" {
				t.AddRow(ui.Hint(label), value)
			}
		}
		row("module", info.ModulePath)
		commit := info.Commit
		if commit != "" && info.Modified {
			commit += " (modified)"
		}
		row("commit", commit)
		row("built", info.CommitTime)
		row("go", info.GoVersion)
		row("platform", info.GOOS+"/"+info.GOARCH)
		row("sqlite", info.SQLite)
		op.printf("%s", t.String())
		return nil
	},
}

// currentVersionInfo prefers the module build info and fills gaps from the
// values stamped into buildinfo at link time.
func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    develVersion,
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok && bi != nil {
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalizeVersion(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}

		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		info.GOOS = firstNonEmpty(settings["GOOS"], info.GOOS)
		info.GOARCH = firstNonEmpty(settings["GOARCH"], info.GOARCH)
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")

		for _, dep := range bi.Deps {
			if dep.Path == sqliteModulePath {
				info.SQLite = dep.Version
			}
		}
	}

	if info.Version == develVersion && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	info.Commit = firstNonEmpty(info.Commit, buildinfo.Commit)
	info.CommitTime = firstNonEmpty(info.CommitTime, buildinfo.Date)
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return develVersion
	}
	return version
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
