// Package config holds the format-agnostic model of a loaded grid: runner
// and asset definitions plus the grid's steps and resources, together with
// the Loader and Converter interfaces a concrete format implements.
//
// The dag and executor packages consume only this model; HCL syntax stays
// entirely behind the interfaces.
package config
