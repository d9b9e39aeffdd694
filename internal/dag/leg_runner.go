package dag

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/report"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// executeLegNode runs the steps of one leg strictly in order, stopping at the
// first failure. Remaining steps are reported as skipped.
func (e *Executor) executeLegNode(ctx context.Context, node *Node) error {
	logger := ctxlog.FromContext(ctx).With("job", node.Leg.Job.Name)
	logger.Info("▶️ Starting leg", "pool", node.Leg.Job.Pool, "vars", node.Leg.Vars)

	legReport := &report.LegReport{
		Job:    node.Leg.Job.Name,
		Leg:    node.ID(),
		Pool:   node.Leg.Job.Pool,
		Vars:   node.Leg.Vars,
		Status: report.StatusSucceeded,
	}
	node.Report = legReport
	if e.recorder != nil {
		defer e.recorder.AddLeg(legReport)
	}

	// A job with a container attribute runs every step inside that image.
	legRunner := e.baseRunner
	if node.Leg.Job.Container != "" {
		legRunner = &shellexec.ContainerRunner{
			Inner:   e.baseRunner,
			Image:   node.Leg.Job.Container,
			Workdir: e.workdir,
		}
	}

	evalCtx := runtime.EvalContext(e.pipeline, node.Leg, e.secrets)

	var legErr error
	for _, step := range node.Leg.Job.Steps {
		stepReport := &report.StepReport{
			Name:   step.Name,
			Runner: step.RunnerType,
			Status: report.StatusSkipped,
		}
		legReport.Steps = append(legReport.Steps, stepReport)

		if legErr != nil {
			continue
		}

		recording := &runtime.RecordingRunner{Inner: legRunner, Masker: e.masker}
		stepCtx := &runtime.StepContext{
			Pipeline: e.pipeline,
			Leg:      node.Leg,
			Workdir:  e.workdir,
			Exec:     recording,
			Secrets:  e.secrets,
			Masker:   e.masker,
		}

		start := time.Now()
		err := e.executeStep(ctx, step.Name, step.RunnerType, step.Arguments, evalCtx, stepCtx)
		stepReport.Duration = time.Since(start)
		stepReport.Commands = recording.Commands()

		if err != nil {
			stepReport.Status = report.StatusFailed
			stepReport.Error = e.masker.Mask(err.Error())
			legErr = fmt.Errorf("step '%s': %w", step.Name, err)
			continue
		}
		stepReport.Status = report.StatusSucceeded
	}

	if legErr != nil {
		legReport.Status = report.StatusFailed
		legReport.Error = e.masker.Mask(legErr.Error())
		return legErr
	}

	logger.Info("✅ Leg finished")
	return nil
}

// executeStep decodes one step's arguments and invokes its handler.
func (e *Executor) executeStep(ctx context.Context, name, runnerType string, args hcl.Body, evalCtx *hcl.EvalContext, stepCtx *runtime.StepContext) error {
	logger := ctxlog.FromContext(ctx).With("step", name, "runner", runnerType)
	logger.Info("Running step.")

	handler, ok := e.registry.Runner(runnerType)
	if !ok {
		// Startup validation makes this unreachable for loaded pipelines.
		return fmt.Errorf("unknown runner type '%s'", runnerType)
	}

	input := handler.NewInput()
	if args != nil {
		if diags := gohcl.DecodeBody(args, evalCtx, input); diags.HasErrors() {
			return fmt.Errorf("decoding arguments: %w", diags)
		}
	}

	results := reflect.ValueOf(handler.Fn).Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(stepCtx),
		reflect.ValueOf(input),
	})
	if errResult := results[1].Interface(); errResult != nil {
		return errResult.(error)
	}
	return nil
}
