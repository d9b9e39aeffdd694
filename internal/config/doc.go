// Package config defines the format-agnostic model of a loaded pipeline and
// the Loader interface implemented by format-specific loaders.
package config
