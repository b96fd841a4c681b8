// Package cli turns command-line arguments and MATCHGRID_* environment
// variables into an app.Config. It owns the usage text and the exit codes
// for malformed invocations.
package cli
