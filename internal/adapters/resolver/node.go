package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/core/ports"
)

// NodeID is the unique identifier for the import resolver Graft node.
const NodeID graft.ID = "adapter.resolver"

func init() {
	graft.Register(graft.Node[ports.ImportResolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ImportResolver, error) {
			return New(), nil
		},
	})
}
