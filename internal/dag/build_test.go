package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelforge/wheelforge/internal/config"
)

func testModel(jobs ...*config.Job) *config.Model {
	return &config.Model{
		Pipeline: &config.Pipeline{Name: "test"},
		Jobs:     jobs,
	}
}

func TestBuildExpandsMatrixLegs(t *testing.T) {
	model := testModel(&config.Job{
		Name:       "Build",
		Matrix:     map[string][]string{"v": {"3.9", "3.10", "3.11"}},
		MatrixAxes: []string{"v"},
	})

	graph, err := Build(context.Background(), model, "")
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "Build/v=3.9", graph.Nodes[0].ID())
	assert.Equal(t, "Build/v=3.11", graph.Nodes[2].ID())
}

func TestBuildWiresDependsOnEdges(t *testing.T) {
	model := testModel(
		&config.Job{
			Name:       "Build",
			Matrix:     map[string][]string{"v": {"a", "b"}},
			MatrixAxes: []string{"v"},
		},
		&config.Job{Name: "Publish", DependsOn: []string{"Build"}},
	)

	graph, err := Build(context.Background(), model, "")
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)

	var publish *Node
	for _, n := range graph.Nodes {
		if n.ID() == "Publish" {
			publish = n
		}
	}
	require.NotNil(t, publish)
	// Every leg of a dependency gates the dependent.
	assert.Len(t, publish.Deps, 2)
	assert.Equal(t, int32(2), publish.depCount.Load())
	for _, n := range graph.Nodes {
		if n.ID() != "Publish" {
			assert.Equal(t, []*Node{publish}, n.Dependents)
		}
	}
}

func TestBuildJobFilter(t *testing.T) {
	model := testModel(
		&config.Job{Name: "Build"},
		&config.Job{Name: "Publish", DependsOn: []string{"Build"}},
	)

	graph, err := Build(context.Background(), model, "Publish")
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "Publish", graph.Nodes[0].ID())
	// The cross-job dependency is dropped so the job runs on its own.
	assert.Empty(t, graph.Nodes[0].Deps)
	assert.Equal(t, int32(0), graph.Nodes[0].depCount.Load())
}

func TestBuildErrors(t *testing.T) {
	t.Run("unknown job filter", func(t *testing.T) {
		_, err := Build(context.Background(), testModel(&config.Job{Name: "A"}), "Nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown job 'Nope'")
	})

	t.Run("unknown dependency", func(t *testing.T) {
		model := testModel(&config.Job{Name: "A", DependsOn: []string{"Missing"}})
		_, err := Build(context.Background(), model, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown job 'Missing'")
	})

	t.Run("self dependency", func(t *testing.T) {
		model := testModel(&config.Job{Name: "A", DependsOn: []string{"A"}})
		_, err := Build(context.Background(), model, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "depends on itself")
	})

	t.Run("cycle", func(t *testing.T) {
		model := testModel(
			&config.Job{Name: "A", DependsOn: []string{"B"}},
			&config.Job{Name: "B", DependsOn: []string{"A"}},
		)
		_, err := Build(context.Background(), model, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle")
	})
}
