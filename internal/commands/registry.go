// Package commands is the single source of truth for ocmd command metadata.
// The CLI applies it to the cobra tree so help text lives in one place.
package commands

// Meta defines help metadata for a CLI command.
type Meta struct {
	Name        string     // Command path (e.g., "list", "config add-source")
	Description string     // Short description
	LongDesc    string     // Long description (for --help)
	Args        []ArgMeta  // Positional arguments
	Flags       []FlagMeta // Command flags
	Examples    []string   // Usage examples
}

// ArgMeta defines a positional argument.
type ArgMeta struct {
	Name        string
	Description string
	Required    bool
	Variadic    bool
}

// FlagMeta defines a command flag.
type FlagMeta struct {
	Name        string
	Short       string
	Description string
	Type        FlagType
	Default     string
}

// FlagType represents the type of a flag.
type FlagType string

const (
	FlagTypeString      FlagType = "string"
	FlagTypeBool        FlagType = "bool"
	FlagTypeInt         FlagType = "int"
	FlagTypeStringSlice FlagType = "stringSlice"
)

// Registry holds all registered commands, keyed by command path.
var Registry = map[string]Meta{
	"list": {
		Name:        "list",
		Description: "List installed commands",
		LongDesc: `Lists every command in the command directory, sorted by key.

Documents that fail to parse are reported as warnings and left out.`,
		Flags: []FlagMeta{
			{Name: "namespace", Short: "n", Description: "Only commands in this namespace", Type: FlagTypeString},
			{Name: "tag", Short: "t", Description: "Only commands with this tag", Type: FlagTypeString},
			{Name: "type", Description: "Only commands whose header type matches", Type: FlagTypeString},
			{Name: "long", Short: "l", Description: "Show tags, arguments, usage and file paths", Type: FlagTypeBool},
		},
		Examples: []string{
			"ocmd list",
			"ocmd list --namespace git --long",
			"ocmd list --tag review --json",
		},
	},
	"search": {
		Name:        "search",
		Description: "Search commands by name, namespace, description or tag",
		LongDesc: `Finds commands whose name, namespace, description or tags contain the query,
ignoring case. With --fuzzy, a query that matches nothing exactly falls back
to commands whose name, namespace or description contain the query's
characters in order.`,
		Args: []ArgMeta{
			{Name: "query", Description: "Text to look for", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "fuzzy", Short: "f", Description: "Fall back to subsequence matching", Type: FlagTypeBool},
			{Name: "limit", Description: "Maximum number of results (0 = no limit)", Type: FlagTypeInt, Default: "20"},
		},
		Examples: []string{
			"ocmd search commit",
			"ocmd search cmt --fuzzy",
		},
	},
	"show": {
		Name:        "show",
		Description: "Show a command's metadata and body",
		Args: []ArgMeta{
			{Name: "name", Description: "Command name or namespace:name", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "raw", Description: "Print the body without markdown rendering", Type: FlagTypeBool},
		},
		Examples: []string{
			"ocmd show git:commit",
			"ocmd show commit --raw",
		},
	},
	"render": {
		Name:        "render",
		Description: "Print a command body with its placeholders filled in",
		LongDesc: `Substitutes $ARGUMENTS, $1..$N and declared argument names in the command
body and prints the result. The use is recorded in the usage history.`,
		Args: []ArgMeta{
			{Name: "name", Description: "Command name or namespace:name", Required: true},
			{Name: "args", Description: "Positional arguments", Variadic: true},
		},
		Flags: []FlagMeta{
			{Name: "no-validate", Description: "Skip the required/too-many argument check", Type: FlagTypeBool},
		},
		Examples: []string{
			`ocmd render git:commit "fix parser"`,
			"ocmd render review src/ --json",
		},
	},
	"install": {
		Name:        "install",
		Description: "Install commands from a git repository, archive URL or local path",
		LongDesc: `Fetches every command document from the source and installs the chosen ones.

Commands go to the project's .claude/commands directory, or to the global
command directory with --global. Without --all an interactive picker asks
which commands to install. Files that already exist with different content
are conflicts; --force overwrites them.`,
		Args: []ArgMeta{
			{Name: "source", Description: "owner/repo, git URL, .tar.gz URL or local path", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "namespace", Short: "n", Description: "Install into this namespace", Type: FlagTypeString},
			{Name: "force", Description: "Overwrite conflicting files", Type: FlagTypeBool},
			{Name: "all", Short: "a", Description: "Install everything without prompting", Type: FlagTypeBool},
			{Name: "global", Short: "g", Description: "Install into the global command directory", Type: FlagTypeBool},
			{Name: "dry-run", Description: "Show the plan without writing", Type: FlagTypeBool},
		},
		Examples: []string{
			"ocmd install DreamCats/my-commands --all",
			"ocmd install ./team-commands --namespace team --global",
			"ocmd install https://example.com/commands.tar.gz --dry-run",
		},
	},
	"sync": {
		Name:        "sync",
		Description: "Update local commands from the configured sources",
		LongDesc: `Fetches each configured source in order and compares it with the local
collection by name and namespace. Commands whose version differs become
updates; unknown commands become additions. An interactive picker confirms
which ones to write; --yes applies all of them. --dry-run only reports.

A source that fails to fetch is reported and the others still run.`,
		Flags: []FlagMeta{
			{Name: "dry-run", Description: "Report candidates without prompting or writing", Type: FlagTypeBool},
			{Name: "source", Short: "s", Description: "Only sync sources matching this URL or path (repeatable)", Type: FlagTypeStringSlice},
			{Name: "local-only", Description: "Skip remote sources", Type: FlagTypeBool},
			{Name: "claude", Description: "Also write AGENTS.md and .claude/commands files", Type: FlagTypeBool},
			{Name: "yes", Short: "y", Description: "Apply every candidate without prompting", Type: FlagTypeBool},
		},
		Examples: []string{
			"ocmd sync --dry-run",
			"ocmd sync --source DreamCats/my-commands --yes",
			"ocmd sync --local-only --claude",
		},
	},
	"remove": {
		Name:        "remove",
		Description: "Delete an installed command",
		Args: []ArgMeta{
			{Name: "name", Description: "Command name or namespace:name", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "yes", Short: "y", Description: "Do not ask for confirmation", Type: FlagTypeBool},
		},
		Examples: []string{
			"ocmd remove git:commit --yes",
		},
	},
	"new": {
		Name:        "new",
		Description: "Create a new command document",
		LongDesc: `Creates a command file from a title. "Git: Commit Message" becomes
git/commit-message.md with name commit-message in namespace git.`,
		Args: []ArgMeta{
			{Name: "title", Description: "Command title, optionally prefixed with namespace:", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "namespace", Short: "n", Description: "Namespace (overrides a prefix in the title)", Type: FlagTypeString},
			{Name: "description", Short: "d", Description: "Description", Type: FlagTypeString},
			{Name: "tag", Short: "t", Description: "Tag (repeatable)", Type: FlagTypeStringSlice},
		},
		Examples: []string{
			`ocmd new "Git: Commit Message" --description "Draft a commit message"`,
		},
	},
	"config": {
		Name:        "config",
		Description: "Manage the global configuration",
	},
	"config show": {
		Name:        "config show",
		Description: "Show the effective configuration",
	},
	"config init": {
		Name:        "config init",
		Description: "Write a default config file if none exists",
	},
	"config add-source": {
		Name:        "config add-source",
		Description: "Add a sync source",
		Args: []ArgMeta{
			{Name: "locator", Description: "Git URL, owner/repo, archive URL or local path", Required: true},
		},
		Flags: []FlagMeta{
			{Name: "type", Description: "git, archive or local (detected when omitted)", Type: FlagTypeString},
		},
		Examples: []string{
			"ocmd config add-source acme/commands",
			"ocmd config add-source ~/shared-commands --type local",
		},
	},
	"config remove-source": {
		Name:        "config remove-source",
		Description: "Remove sync sources matching a URL or path",
		Args: []ArgMeta{
			{Name: "locator", Description: "URL or path of the source", Required: true},
		},
	},
	"stats": {
		Name:        "stats",
		Description: "Show collection and usage statistics",
	},
	"version": {
		Name:        "version",
		Description: "Show ocmd version and build information",
	},
}
