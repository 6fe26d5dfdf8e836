// Package semver renders structured semantic versions.
package semver

import (
	"fmt"
	"strings"
)

// V - structured semantic version representation.
type V struct {
	Major, Minor, Patch uint
	// PreRelease - optional pre-release tag, rendered after a hyphen.
	PreRelease string
	// Build - optional build metadata, rendered dot-joined after a plus.
	Build []string
}

func (v V) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		s += "-" + v.PreRelease
	}
	if len(v.Build) > 0 {
		s += "+" + strings.Join(v.Build, ".")
	}
	return s
}
