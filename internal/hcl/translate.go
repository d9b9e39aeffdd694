package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/schema"
)

// translateJob converts the HCL-specific job schema into the agnostic model.
func (l *Loader) translateJob(j *schema.Job) (*config.Job, error) {
	job := &config.Job{
		Name:      j.Name,
		Pool:      j.Pool,
		Container: j.Container,
		DependsOn: j.DependsOn,
	}

	if j.Matrix != nil {
		axes, order, err := l.translateMatrix(j.Matrix)
		if err != nil {
			return nil, fmt.Errorf("matrix: %w", err)
		}
		job.Matrix = axes
		job.MatrixAxes = order
	}

	if j.Variables != nil {
		vars, err := l.translateVariables(j.Variables)
		if err != nil {
			return nil, fmt.Errorf("variables: %w", err)
		}
		job.Variables = vars
	}

	seen := make(map[string]struct{})
	for _, s := range j.Steps {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate step instance name '%s'", s.Name)
		}
		seen[s.Name] = struct{}{}

		step := &config.Step{
			RunnerType: s.RunnerType,
			Name:       s.Name,
		}
		if s.Arguments != nil {
			step.Arguments = s.Arguments.Body
		}
		job.Steps = append(job.Steps, step)
	}

	return job, nil
}

// translateMatrix evaluates each matrix attribute to a list of strings.
// Axis declaration order is recovered from source ranges so that leg naming
// stays stable across runs.
func (l *Loader) translateMatrix(block *schema.MatrixBlock) (map[string][]string, []string, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, nil, diags
	}
	if len(attrs) == 0 {
		return nil, nil, fmt.Errorf("matrix block declares no axes")
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, k int) bool {
		return ordered[i].Range.Start.Byte < ordered[k].Range.Start.Byte
	})

	axes := make(map[string][]string, len(ordered))
	var order []string
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("axis '%s': %w", attr.Name, diags)
		}
		values, err := ctyStringList(val)
		if err != nil {
			return nil, nil, fmt.Errorf("axis '%s': %w", attr.Name, err)
		}
		if len(values) == 0 {
			return nil, nil, fmt.Errorf("axis '%s': empty value list", attr.Name)
		}
		axes[attr.Name] = values
		order = append(order, attr.Name)
	}
	return axes, order, nil
}

// translateVariables evaluates each variables attribute to a string.
func (l *Loader) translateVariables(block *schema.VariablesBlock) (map[string]string, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	vars := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("variable '%s': %w", name, diags)
		}
		if val.Type() != cty.String {
			return nil, fmt.Errorf("variable '%s': must be a string, got %s", name, val.Type().FriendlyName())
		}
		vars[name] = val.AsString()
	}
	return vars, nil
}

// ctyStringList converts a cty list/tuple value into a []string.
func ctyStringList(val cty.Value) ([]string, error) {
	if !val.Type().IsTupleType() && !val.Type().IsListType() {
		return nil, fmt.Errorf("must be a list of strings, got %s", val.Type().FriendlyName())
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String {
			return nil, fmt.Errorf("must be a list of strings, got element of type %s", elem.Type().FriendlyName())
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}
