// Package version reports the build identity of the lotledger binary.
package version

import "fmt"

// Set at build time via -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns "lotledger <version> (commit: <short>, built: <time>)".
func String() string {
	return fmt.Sprintf("lotledger %s (commit: %s, built: %s)", Version, shortCommit(), BuildTime)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
