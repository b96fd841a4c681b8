// Package registry connects module manifests to compiled Go code.
//
// Manifests name their lifecycle handlers as strings (for example
// "OnRunHaliteMatch"); the registry maps those names to the registered Go
// functions and input types, and keeps the parsed definitions alongside.
//
// Startup validation cross-checks the two sides, so a manifest cannot
// promise an input or output the Go handler does not deliver.
package registry
