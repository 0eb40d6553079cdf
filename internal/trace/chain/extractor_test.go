package chain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgertrace/internal/trace/graph"
	"ledgertrace/internal/trace/models"
)

// buildNetwork wires a network from an edge list like "A>B".
func buildNetwork(root string, edges ...[2]string) *graph.Network {
	entities := map[string]*models.Entity{
		root: {FilingID: root},
	}
	get := func(id string) *models.Entity {
		if e, ok := entities[id]; ok {
			return e
		}
		e := &models.Entity{FilingID: id}
		entities[id] = e
		return e
	}
	for _, edge := range edges {
		owner, owned := get(edge[0]), get(edge[1])
		owner.Owns = append(owner.Owns, owned.FilingID)
		owned.OwnedBy = append(owned.OwnedBy, owner.FilingID)
	}
	return &graph.Network{RootID: root, Entities: entities}
}

func TestExtract(t *testing.T) {
	e := NewExtractor()

	t.Run("lone root is not a chain", func(t *testing.T) {
		chains := e.Extract(buildNetwork("A"))
		assert.Empty(t, chains)
	})

	t.Run("single edge yields one chain", func(t *testing.T) {
		chains := e.Extract(buildNetwork("A", [2]string{"A", "B"}))
		require.Len(t, chains, 1)
		assert.Equal(t, []string{"A", "B"}, chains[0].EntityIDs)
		assert.Equal(t, 2, chains[0].Depth)
		assert.False(t, chains[0].Circular)
	})

	t.Run("branching produces a chain per terminal", func(t *testing.T) {
		chains := e.Extract(buildNetwork("A",
			[2]string{"A", "B"},
			[2]string{"B", "C"},
			[2]string{"B", "D"},
		))
		require.Len(t, chains, 2)

		var paths [][]string
		for _, c := range chains {
			paths = append(paths, c.EntityIDs)
		}
		assert.Contains(t, paths, []string{"A", "B", "C"})
		assert.Contains(t, paths, []string{"A", "B", "D"})
	})

	t.Run("shared intermediate appears in multiple chains", func(t *testing.T) {
		// D is reachable through both B and C; a global visited set would
		// drop one of these chains.
		chains := e.Extract(buildNetwork("A",
			[2]string{"A", "B"},
			[2]string{"A", "C"},
			[2]string{"B", "D"},
			[2]string{"C", "D"},
		))
		require.Len(t, chains, 2)

		var paths [][]string
		for _, c := range chains {
			paths = append(paths, c.EntityIDs)
		}
		assert.Contains(t, paths, []string{"A", "B", "D"})
		assert.Contains(t, paths, []string{"A", "C", "D"})
	})

	t.Run("cycle closes the chain with circular flag", func(t *testing.T) {
		chains := e.Extract(buildNetwork("A",
			[2]string{"A", "B"},
			[2]string{"B", "A"},
		))
		require.Len(t, chains, 1)

		c := chains[0]
		assert.True(t, c.Circular)
		assert.Equal(t, []string{"A", "B", "A"}, c.EntityIDs)
		// The duplicate id is exactly the path-closing element.
		assert.Equal(t, c.EntityIDs[0], c.EntityIDs[len(c.EntityIDs)-1])
	})

	t.Run("self-loop deeper in the graph", func(t *testing.T) {
		chains := e.Extract(buildNetwork("A",
			[2]string{"A", "B"},
			[2]string{"B", "B"},
		))
		require.Len(t, chains, 1)
		assert.True(t, chains[0].Circular)
		assert.Equal(t, []string{"A", "B", "B"}, chains[0].EntityIDs)
	})

	t.Run("no id repeats in non-circular chains", func(t *testing.T) {
		chains := e.Extract(buildNetwork("A",
			[2]string{"A", "B"},
			[2]string{"B", "C"},
			[2]string{"C", "D"},
			[2]string{"B", "D"},
		))
		for _, c := range chains {
			if c.Circular {
				continue
			}
			seen := make(map[string]bool)
			for _, id := range c.EntityIDs {
				assert.False(t, seen[id], "id %s repeats in non-circular chain %v", id, c.EntityIDs)
				seen[id] = true
			}
		}
	})

	t.Run("path length never exceeds the ceiling", func(t *testing.T) {
		// A linear chain of 30 entities; extraction must stop at the cap.
		edges := make([][2]string, 0, 29)
		for i := 0; i < 29; i++ {
			edges = append(edges, [2]string{fmt.Sprintf("E%d", i), fmt.Sprintf("E%d", i+1)})
		}
		chains := e.Extract(buildNetwork("E0", edges...))
		require.Len(t, chains, 1)
		assert.Len(t, chains[0].EntityIDs, DefaultMaxChainDepth)
	})
}
