package parser

import (
	"path/filepath"
	"strings"
)

// Namespaces assigned to well-known command directories.
const (
	NamespaceClaude  = "claude"
	NamespaceUser    = "user"
	NamespaceDefault = "default"
)

// ResolveIdentity derives the final name and namespace.
//
// A name of the form "ns: rest" with no explicit namespace is split on the
// first colon. Anything still missing is taken from pathHint.
func ResolveIdentity(name, namespace, pathHint string) (string, string) {
	if namespace == "" {
		if ns, rest, ok := strings.Cut(name, ":"); ok {
			namespace = strings.TrimSpace(ns)
			name = strings.TrimSpace(rest)
		}
	}

	if pathHint != "" && (name == "" || namespace == "") {
		pathName, pathNamespace := IdentityFromPath(pathHint)
		if name == "" {
			name = pathName
		}
		if namespace == "" {
			namespace = pathNamespace
		}
	}

	return name, namespace
}

// IdentityFromPath returns the file stem as name and a namespace derived from
// the parent directory:
//
//	.../.claude/commands/x.md       -> claude
//	.../.opencommands/commands/x.md -> user
//	.../commands/x.md, ./x.md       -> default
//	.../<dir>/x.md                  -> <dir>
func IdentityFromPath(path string) (name, namespace string) {
	base := filepath.Base(path)
	name = strings.TrimSuffix(base, filepath.Ext(base))

	dir := filepath.ToSlash(filepath.Dir(path))
	parent := filepath.Base(filepath.Dir(path))

	switch {
	case dir == ".claude/commands" || strings.HasSuffix(dir, "/.claude/commands"):
		namespace = NamespaceClaude
	case dir == ".opencommands/commands" || strings.HasSuffix(dir, "/.opencommands/commands"):
		namespace = NamespaceUser
	case parent == "commands" || parent == "." || parent == "/" || parent == "":
		namespace = NamespaceDefault
	default:
		namespace = parent
	}

	return name, namespace
}
