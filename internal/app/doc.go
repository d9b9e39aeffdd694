// Package app wires the application together: configuration loading, the
// runner registry, secret resolution, graph construction, and execution.
package app
