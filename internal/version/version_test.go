package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_ShortensCommit(t *testing.T) {
	origCommit, origBuilt := Commit, BuildTime
	t.Cleanup(func() { Commit, BuildTime = origCommit, origBuilt })

	Commit = "0123456789abcdef"
	BuildTime = "2026-10-18T00:00:00Z"
	assert.Equal(t, "lotledger dev (commit: 0123456, built: 2026-10-18T00:00:00Z)", String())

	Commit = "abc"
	assert.Contains(t, String(), "commit: abc,")
}
