// Package version exposes build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/pricing-detective/internal/version.Version=1.0.0 ..."
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the semantic version (e.g., "1.2.0").
	Version = "0.0.0-dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// Dirty is "true" when the tree had uncommitted changes at build time.
	Dirty = "false"
)

// Info is the resolved build metadata, as logged at startup.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty"`
	GoVersion string `json:"go_version"`
}

// Get returns the version info for this binary.
// GoVersion comes from the runtime rather than ldflags.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		Dirty:     Dirty == "true",
		GoVersion: runtime.Version(),
	}
}

// Short returns the version, suffixed with -dirty for dirty trees.
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// String returns a human-readable version line.
func (i Info) String() string {
	return fmt.Sprintf("%s (%s) built %s", i.Short(), i.Commit, i.Date)
}

// UserAgent builds the User-Agent sent on outbound calls, e.g. "pricing-detective/1.2.0".
func (i Info) UserAgent(service string) string {
	return service + "/" + i.Short()
}
