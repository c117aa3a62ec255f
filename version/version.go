// Package version carries build metadata, overridable at link time:
//
//	go build -ldflags "-X github.com/farcloser/pyrmon/version.version=1.2.3 -X github.com/farcloser/pyrmon/version.commit=$(git rev-parse --short HEAD)"
package version

const name = "pyrmon"

//nolint:gochecknoglobals // set through ldflags
var (
	version = "dev"
	commit  = "unknown"
)

// Name returns the binary name.
func Name() string {
	return name
}

// Version returns the release version.
func Version() string {
	return version
}

// Commit returns the short git commit the binary was built from.
func Commit() string {
	return commit
}
