package app

import (
	"context"
	"fmt"

	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/dag"
	"github.com/wheelforge/wheelforge/internal/report"
)

// Run executes the loaded pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	graph, err := dag.Build(ctx, a.model, a.config.Job)
	if err != nil {
		return fmt.Errorf("failed to build execution graph: %w", err)
	}
	a.logger.Info("Execution graph built.",
		"pipeline", a.model.Pipeline.Name, "legs", len(graph.Nodes))

	if a.config.DryRun {
		return a.printPlan(graph)
	}

	recorder := report.NewRecorder(a.model.Pipeline.Name)
	a.logger.Info("🚀 Starting pipeline run.", "run_id", recorder.RunID())

	exec := dag.New(graph, dag.Options{
		Workers:  a.config.WorkerCount,
		Registry: a.registry,
		Pipeline: a.model.Pipeline,
		Secrets:  a.secrets,
		Masker:   a.masker,
		Runner:   a.runner,
		Workdir:  a.config.Workdir,
		Recorder: recorder,
	})
	runErr := exec.Run(ctx)

	rep := recorder.Finish()
	if a.config.ReportPath != "" {
		if err := rep.WriteFile(a.config.ReportPath); err != nil {
			a.logger.Error("Failed to write run report.", "path", a.config.ReportPath, "error", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			a.logger.Info("Run report written.", "path", a.config.ReportPath)
		}
	}

	if runErr != nil {
		return fmt.Errorf("pipeline '%s' failed: %w", a.model.Pipeline.Name, runErr)
	}
	a.logger.Info("🏁 Pipeline finished.", "status", rep.Status)
	return nil
}

// printPlan writes the execution plan of a dry run to the output writer.
func (a *App) printPlan(graph *dag.Graph) error {
	fmt.Fprintf(a.outW, "Pipeline %s: %d leg(s)\n", a.model.Pipeline.Name, len(graph.Nodes))
	for _, node := range graph.Nodes {
		job := node.Leg.Job
		fmt.Fprintf(a.outW, "  %s", node.ID())
		if job.Pool != "" {
			fmt.Fprintf(a.outW, " [pool %s]", job.Pool)
		}
		if job.Container != "" {
			fmt.Fprintf(a.outW, " [container %s]", job.Container)
		}
		fmt.Fprintln(a.outW)
		for _, step := range job.Steps {
			fmt.Fprintf(a.outW, "    - %s (%s)\n", step.Name, step.RunnerType)
		}
	}
	return nil
}
