package version

var (
	Version = "0.4.0"

	// BuildDate and GitCommit are set via -ldflags at build time.
	BuildDate = "development"
	GitCommit = "unknown"
)

// Info returns the short version string.
func Info() string {
	return Version
}

// FullInfo returns version plus build provenance.
func FullInfo() string {
	return "indexer " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
