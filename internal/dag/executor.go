package dag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/report"
	"github.com/wheelforge/wheelforge/internal/secrets"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Executor runs the legs of a graph on a pool of workers.
type Executor struct {
	graph      *Graph
	numWorkers int
	registry   *registry.Registry
	pipeline   *config.Pipeline
	secrets    *secrets.Store
	masker     *secrets.Masker
	baseRunner shellexec.Runner
	workdir    string
	recorder   *report.Recorder

	wg sync.WaitGroup
}

// Options carries the executor's collaborators.
type Options struct {
	Workers  int
	Registry *registry.Registry
	Pipeline *config.Pipeline
	Secrets  *secrets.Store
	Masker   *secrets.Masker
	Runner   shellexec.Runner
	Workdir  string
	Recorder *report.Recorder
}

// New creates an Executor for the graph.
func New(graph *Graph, opts Options) *Executor {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		graph:      graph,
		numWorkers: workers,
		registry:   opts.Registry,
		pipeline:   opts.Pipeline,
		secrets:    opts.Secrets,
		masker:     opts.Masker,
		baseRunner: opts.Runner,
		workdir:    opts.Workdir,
		recorder:   opts.Recorder,
	}
}

// Run executes the entire graph and returns an error naming every failed leg.
// A leg failure skips that leg's dependents but never cancels independent
// legs or jobs; only context cancellation aborts the whole run.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *Node, len(e.graph.Nodes))

	logger.Debug("Initializing executor, finding root nodes...")
	rootNodeCount := 0
	for _, node := range e.graph.Nodes {
		if node.depCount.Load() == 0 {
			readyChan <- node
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(ctx, readyChan, i)
	}

	logger.Info("Waiting for all legs to complete...")
	e.wg.Wait()
	close(readyChan)
	logger.Info("All legs completed.")

	var failedLegs []string
	var rootCauseError error
	for _, node := range e.graph.Nodes {
		if NodeState(node.State.Load()) != Failed {
			continue
		}
		logger.Error("Leg failed.", "leg", node.ID(), "error", node.Error)
		// A skipped leg is a symptom, not a cause.
		if node.Error != nil && !strings.HasPrefix(node.Error.Error(), "skipped") && !errors.Is(node.Error, context.Canceled) {
			failedLegs = append(failedLegs, node.ID())
			if rootCauseError == nil {
				rootCauseError = node.Error
			}
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedLegs, ", "), rootCauseError)
	}
	return nil
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *Node, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for node := range readyChan {
		workerLogger := logger.With("workerID", workerID, "leg", node.ID())

		if ctx.Err() != nil {
			node.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping leg.")
				node.State.Store(int32(Failed))
				node.Error = ctx.Err()
				e.recordSkipped(node, ctx.Err())
				e.wg.Done()
			})
			continue
		}

		node.State.Store(int32(Running))
		err := e.executeLegNode(ctxlog.WithLogger(ctx, workerLogger), node)

		if err != nil {
			workerLogger.Error("Leg execution failed.", "error", err)
			node.State.Store(int32(Failed))
			node.Error = err
			e.skipDependents(ctx, node)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Leg execution succeeded.")
		node.State.Store(int32(Done))

		for _, dependent := range node.Dependents {
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent leg.", "dependent", dependent.ID())
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skipDependents recursively marks all downstream nodes as failed.
func (e *Executor) skipDependents(ctx context.Context, node *Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping dependent leg due to upstream failure.",
				"leg", dependent.ID(), "dependency", node.ID())
			dependent.State.Store(int32(Failed))
			dependent.Error = fmt.Errorf("skipped due to upstream failure of '%s'", node.ID())
			e.recordSkipped(dependent, dependent.Error)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// recordSkipped files a report entry for a leg that never ran.
func (e *Executor) recordSkipped(node *Node, reason error) {
	if e.recorder == nil {
		return
	}
	e.recorder.AddLeg(&report.LegReport{
		Job:    node.Leg.Job.Name,
		Leg:    node.ID(),
		Pool:   node.Leg.Job.Pool,
		Vars:   node.Leg.Vars,
		Status: report.StatusSkipped,
		Error:  reason.Error(),
	})
}
