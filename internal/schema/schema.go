package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Primary Pipeline Structures ---

// StepArgs represents the content of the 'arguments' block within a step.
// It is kept as a raw body so expressions can be evaluated later, against the
// leg-specific evaluation context.
type StepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Step represents a `step` block inside a job. It is a runnable instance of a
// registered runner type. Steps execute strictly in declaration order.
type Step struct {
	RunnerType string    `hcl:"runner_type,label"`
	Name       string    `hcl:"instance_name,label"`
	Arguments  *StepArgs `hcl:"arguments,block"`
}

// MatrixBlock represents the `matrix` block of a job. Each attribute is an
// axis whose value is a list of strings; the job runs once per combination.
type MatrixBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// VariablesBlock represents the `variables` block of a job: fixed string
// values reachable from step arguments as `var.<name>`.
type VariablesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Job represents a `job` block from a pipeline file.
type Job struct {
	Name      string          `hcl:"name,label"`
	Pool      string          `hcl:"pool,optional"`
	Container string          `hcl:"container,optional"`
	Matrix    *MatrixBlock    `hcl:"matrix,block"`
	Variables *VariablesBlock `hcl:"variables,block"`
	DependsOn []string        `hcl:"depends_on,optional"`
	Steps     []*Step         `hcl:"step,block"`
}

// Pipeline represents the `pipeline` block: run-wide settings.
type Pipeline struct {
	Name string `hcl:"name,label"`
	// Package is the distribution name published by this pipeline. The twine
	// runner uses it for the index existence precheck.
	Package string `hcl:"package,optional"`
}

// Secret represents a `secret` block. The value is resolved from the named
// environment variable at startup and masked in all output.
type Secret struct {
	Name string `hcl:"name,label"`
	Env  string `hcl:"env"`
}

// PipelineConfig represents the top-level structure of a pipeline file.
type PipelineConfig struct {
	Pipeline *Pipeline `hcl:"pipeline,block"`
	Secrets  []*Secret `hcl:"secret,block"`
	Jobs     []*Job    `hcl:"job,block"`
	Body     hcl.Body  `hcl:",remain"`
}
