// Package dag builds the execution graph of job legs and runs it on a worker
// pool. Legs of independent jobs run concurrently; a leg failure fails that
// leg (and skips its dependents) without cancelling the rest of the run.
package dag
