package version

// Version is the current version of pgext.
// Can be overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.4.0"

// Name is the application name.
const Name = "pgext"

// Description is a short description of the application.
const Description = "PostgreSQL extension type handlers for named connections"
