// Package matrix expands a job's matrix axes into concrete legs. Expansion is
// deterministic: axes iterate in declaration order, values in list order, and
// the rightmost axis varies fastest.
package matrix

import (
	"fmt"
	"strings"

	"github.com/wheelforge/wheelforge/internal/config"
)

// Leg is one concrete execution of a job: the job definition plus one value
// per matrix axis.
type Leg struct {
	Job *config.Job
	// ID uniquely names the leg within the run, e.g.
	// "WindowsBuild/python_version=3.9". For jobs without a matrix the ID is
	// just the job name.
	ID string
	// Vars maps axis name to this leg's value.
	Vars map[string]string
}

// Expand returns the legs of a job in deterministic order. A job without a
// matrix expands to a single leg.
func Expand(job *config.Job) []*Leg {
	if len(job.Matrix) == 0 {
		return []*Leg{{Job: job, ID: job.Name, Vars: map[string]string{}}}
	}

	combos := [][]string{{}}
	for _, axis := range job.MatrixAxes {
		var next [][]string
		for _, combo := range combos {
			for _, val := range job.Matrix[axis] {
				extended := make([]string, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, val))
			}
		}
		combos = next
	}

	legs := make([]*Leg, 0, len(combos))
	for _, combo := range combos {
		vars := make(map[string]string, len(combo))
		parts := make([]string, 0, len(combo))
		for i, axis := range job.MatrixAxes {
			vars[axis] = combo[i]
			parts = append(parts, fmt.Sprintf("%s=%s", axis, combo[i]))
		}
		legs = append(legs, &Leg{
			Job:  job,
			ID:   job.Name + "/" + strings.Join(parts, ","),
			Vars: vars,
		})
	}
	return legs
}

// ExpandAll expands every job in order and returns all legs.
func ExpandAll(jobs []*config.Job) []*Leg {
	var legs []*Leg
	for _, job := range jobs {
		legs = append(legs, Expand(job)...)
	}
	return legs
}
