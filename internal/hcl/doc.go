// Package hcl implements the config.Loader interface for HCL pipeline files.
// Parsing is strict at the structural level (blocks, labels), while step
// arguments are kept as raw bodies for per-leg evaluation by the executor.
package hcl
