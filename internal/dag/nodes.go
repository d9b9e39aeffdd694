package dag

import (
	"sync"
	"sync/atomic"

	"github.com/wheelforge/wheelforge/internal/matrix"
	"github.com/wheelforge/wheelforge/internal/report"
)

// NodeState tracks a node's position in its lifecycle.
type NodeState int32

// Node lifecycle states.
const (
	Pending NodeState = iota
	Running
	Done
	Failed
)

// Node is one job leg in the execution graph.
type Node struct {
	Leg *matrix.Leg

	Deps       []*Node
	Dependents []*Node

	// depCount is decremented as dependencies finish; the node becomes ready
	// at zero.
	depCount atomic.Int32
	State    atomic.Int32
	Error    error
	Report   *report.LegReport

	// skipOnce guards the single wg.Done of a node that never runs.
	skipOnce sync.Once
}

// ID returns the leg's unique identifier.
func (n *Node) ID() string {
	return n.Leg.ID
}

// Graph holds all nodes of a run.
type Graph struct {
	Nodes []*Node
	// byJob groups nodes by job name, for wiring depends_on edges.
	byJob map[string][]*Node
}
