// Package registry holds the step runner handlers available to a pipeline.
// Runner modules register themselves under a runner-type name; the executor
// resolves each step block against the registry at run time, and the registry
// is validated against the loaded pipeline at startup.
package registry
