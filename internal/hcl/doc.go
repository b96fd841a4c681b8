// Package hcl implements the config interfaces for HCL input: discovering
// and parsing .hcl files, translating grid and manifest blocks into the
// model, and binding cty values onto Go structs at execution time.
package hcl
