package journey

// Version is the release of the module. Overridden at build time with
// -ldflags "-X github.com/aretw0/journey.Version=v1.2.3".
var Version = "0.1.0-dev"
