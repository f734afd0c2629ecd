package version

// Version is the current version of seedgen.
// Can be overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.3.0"

// Name is the application name.
const Name = "seedgen"

// Description is a short description of the application.
const Description = "Generate a SQL seed script from a Dapodik school statistics export"
