// Package cli parses command-line arguments and environment defaults,
// validates them and maps failures to exit codes. It translates flags into
// the application's configuration.
package cli
