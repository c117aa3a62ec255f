package pyright

import "time"

const (
	// DefaultBinary is looked up in PATH unless overridden.
	DefaultBinary = "pyright"
	// Package is the npm package providing DefaultBinary.
	Package = "pyright"

	// Whole-project runs on large code bases, with a cold type cache, routinely take minutes.
	timeout = 10 * time.Minute
	// Grace period for output pipes held open by children pyright leaves behind once it is killed.
	waitDelay = 5 * time.Second
	// --version must answer quickly, or the install is broken.
	versionTimeout = 30 * time.Second
)
