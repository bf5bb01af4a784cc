// Package util is a set of utility variables or methods
package util

import mapset "github.com/deckarep/golang-set/v2"

// SupportedAnimExt are the animated asset extensions the device plays.
var SupportedAnimExt = mapset.NewSet(
	".gif", ".GIF",
)
