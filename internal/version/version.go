package version

// Version is the build version of candle-trader, set at build time:
// -ldflags "-X github.com/rxtech-lab/candle-trader/internal/version.Version=v1.2.3"
// The default "main" marks a development build.
var Version = "main"

// GetVersion returns the build version.
func GetVersion() string {
	return Version
}

// IsDevelopment reports whether this binary was built without a release version.
func IsDevelopment() bool {
	return Version == "" || Version == "main"
}
