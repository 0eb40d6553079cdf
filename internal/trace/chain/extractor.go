// Package chain walks a built ownership network and enumerates the linear
// root-to-terminal ownership chains inside it.
package chain

import (
	"ledgertrace/internal/trace/graph"
	"ledgertrace/internal/trace/models"
)

// DefaultMaxChainDepth caps path length independently of the crawl depth so
// extraction terminates even under pathological fan-out.
const DefaultMaxChainDepth = 10

// Extractor produces ownership chains from a network. Chains are unscored;
// risk analysis happens separately.
type Extractor struct {
	maxChainDepth int
}

// NewExtractor returns an Extractor with the default depth ceiling.
func NewExtractor() Extractor {
	return Extractor{maxChainDepth: DefaultMaxChainDepth}
}

// Extract walks owns edges depth-first from the root, carrying a per-path
// visited set. The set is forked at each branch rather than shared: the same
// entity may legitimately appear in several distinct chains, and a global
// set would silently drop them.
//
// Revisiting an id on the current path closes the chain with the circular
// flag; the repeated id becomes the final element. Terminal entities end a
// path, which is recorded only when longer than one entity.
func (e Extractor) Extract(network *graph.Network) []models.OwnershipChain {
	var chains []models.OwnershipChain

	record := func(ids []string, circular bool) {
		if len(ids) <= 1 {
			return
		}
		chains = append(chains, models.OwnershipChain{
			RootID:    network.RootID,
			EntityIDs: ids,
			Depth:     len(ids),
			Circular:  circular,
		})
	}

	var walk func(id string, path []string, visited map[string]bool)
	walk = func(id string, path []string, visited map[string]bool) {
		if visited[id] {
			record(append(clonePath(path), id), true)
			return
		}

		path = append(clonePath(path), id)
		visited[id] = true

		entity := network.Get(id)
		if entity == nil || len(entity.Owns) == 0 || len(path) >= e.maxChainDepth {
			record(path, false)
			return
		}

		for _, owned := range entity.Owns {
			walk(owned, path, cloneVisited(visited))
		}
	}

	walk(network.RootID, nil, make(map[string]bool))
	return chains
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}

func cloneVisited(visited map[string]bool) map[string]bool {
	out := make(map[string]bool, len(visited))
	for k, v := range visited {
		out[k] = v
	}
	return out
}
