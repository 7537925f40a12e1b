// Package buildinfo holds release metadata stamped into ocmd at link time,
// e.g. -ldflags "-X github.com/DreamCats/opencommands/internal/buildinfo.Version=v0.4.0".
//
// `ocmd version` reads the module build info first and only uses these
// values to fill fields it leaves empty, such as builds from a source tarball
// without VCS stamping.
package buildinfo

var (
	Version = ""
	Commit  = ""
	// Date is the release build time in RFC 3339.
	Date = ""
)
