// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/matzehuels/graphprod/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/graphprod/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/graphprod/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"     // semantic version, e.g. "v0.3.0"
	Commit  = "none"    // git commit SHA
	Date    = "unknown" // build timestamp, RFC 3339
)

// Short returns the version with an abbreviated commit, e.g. "v0.3.0 (1a2b3c4)".
// The commit is omitted when unknown.
func Short() string {
	if Commit == "" || Commit == "none" {
		return Version
	}
	c := Commit
	if len(c) > 7 {
		c = c[:7]
	}
	return fmt.Sprintf("%s (%s)", Version, c)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
