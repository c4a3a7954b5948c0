// Package version holds build metadata injected via ldflags.
package version

// Set at build time:
//
//	-ldflags "-X github.com/hirelens/matchdex/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a human-readable version line for startup logs.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
