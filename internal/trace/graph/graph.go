// Package graph builds the bounded entity network around a root entity.
package graph

import (
	"ledgertrace/internal/trace/models"
)

// Network is the id-indexed entity arena for one crawl session. It is owned
// exclusively by that session; concurrent sessions construct their own.
type Network struct {
	RootID   string
	Entities map[string]*models.Entity
}

// NewNetwork seeds a network with its root entity at depth 0.
func NewNetwork(root *models.Entity) *Network {
	root.OwnershipDepth = 0
	return &Network{
		RootID:   root.FilingID,
		Entities: map[string]*models.Entity{root.FilingID: root},
	}
}

// Get returns the entity for a filing ID, or nil when absent.
func (n *Network) Get(filingID string) *models.Entity {
	return n.Entities[filingID]
}

// Size reports how many entities the network holds.
func (n *Network) Size() int {
	return len(n.Entities)
}

// Resolve maps a list of filing IDs to entities, skipping unknown ids.
func (n *Network) Resolve(filingIDs []string) []*models.Entity {
	out := make([]*models.Entity, 0, len(filingIDs))
	for _, id := range filingIDs {
		if e := n.Entities[id]; e != nil {
			out = append(out, e)
		}
	}
	return out
}
