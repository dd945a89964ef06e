// Package buildinfo carries release metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/cleared-dev/ptbn2ofx/internal/buildinfo.Version=v1.2.0" ./cmd/ptbn2ofx
package buildinfo

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
	// IssuesURL is this project's issue tracker, where users report export
	// values the parser does not recognize. Forks point it at their own tracker.
	IssuesURL = "https://github.com/cleared-dev/ptbn2ofx/issues"
)
