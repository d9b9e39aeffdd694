package dag

import (
	"context"
	"fmt"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/matrix"
)

// Build expands the selected jobs into legs and wires depends_on edges. When
// jobFilter is non-empty only that job is built; its cross-job dependencies
// are dropped with a warning, since every job must stay independently
// runnable.
func Build(ctx context.Context, model *config.Model, jobFilter string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	jobs := model.Jobs
	if jobFilter != "" {
		job := model.FindJob(jobFilter)
		if job == nil {
			return nil, fmt.Errorf("unknown job '%s'", jobFilter)
		}
		jobs = []*config.Job{job}
	}

	selected := make(map[string]*config.Job, len(jobs))
	for _, job := range jobs {
		selected[job.Name] = job
	}

	// Validate dependency references and reject cycles before expansion.
	for _, job := range jobs {
		for _, dep := range job.DependsOn {
			if model.FindJob(dep) == nil {
				return nil, fmt.Errorf("job '%s' depends on unknown job '%s'", job.Name, dep)
			}
			if dep == job.Name {
				return nil, fmt.Errorf("job '%s' depends on itself", job.Name)
			}
			if _, ok := selected[dep]; !ok {
				logger.Warn("Dropping dependency on unselected job.", "job", job.Name, "dependency", dep)
			}
		}
	}
	if err := checkCycles(jobs, selected); err != nil {
		return nil, err
	}

	graph := &Graph{byJob: make(map[string][]*Node)}
	for _, job := range jobs {
		for _, leg := range matrix.Expand(job) {
			node := &Node{Leg: leg}
			graph.Nodes = append(graph.Nodes, node)
			graph.byJob[job.Name] = append(graph.byJob[job.Name], node)
		}
	}

	// Every leg of a job waits on every leg of each of its dependencies.
	for _, job := range jobs {
		for _, dep := range job.DependsOn {
			depNodes, ok := graph.byJob[dep]
			if !ok {
				continue
			}
			for _, node := range graph.byJob[job.Name] {
				for _, depNode := range depNodes {
					node.Deps = append(node.Deps, depNode)
					depNode.Dependents = append(depNode.Dependents, node)
					node.depCount.Add(1)
				}
			}
		}
	}

	logger.Debug("Execution graph built.", "jobs", len(jobs), "legs", len(graph.Nodes))
	return graph, nil
}

// checkCycles runs a coloring DFS over the job-level dependency edges.
func checkCycles(jobs []*config.Job, selected map[string]*config.Job) error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	colors := make(map[string]int, len(jobs))

	var visit func(job *config.Job) error
	visit = func(job *config.Job) error {
		colors[job.Name] = grey
		for _, dep := range job.DependsOn {
			depJob, ok := selected[dep]
			if !ok {
				continue
			}
			switch colors[dep] {
			case grey:
				return fmt.Errorf("dependency cycle through jobs '%s' and '%s'", job.Name, dep)
			case white:
				if err := visit(depJob); err != nil {
					return err
				}
			}
		}
		colors[job.Name] = black
		return nil
	}

	for _, job := range jobs {
		if colors[job.Name] == white {
			if err := visit(job); err != nil {
				return err
			}
		}
	}
	return nil
}
