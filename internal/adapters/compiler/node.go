package compiler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/adapters/telemetry"
	"go.trai.ch/loom/internal/core/ports"
)

// NodeID is the unique identifier for the compiler Graft node.
const NodeID graft.ID = "adapter.compiler"

func init() {
	graft.Register(graft.Node[ports.Compiler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (ports.Compiler, error) {
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return New(tracer), nil
		},
	})
}
