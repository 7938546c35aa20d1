package snapshot

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/adapters/compiler"
	"go.trai.ch/loom/internal/adapters/logger"
	"go.trai.ch/loom/internal/adapters/resolver"
	"go.trai.ch/loom/internal/core/ports"
)

// NodeID is the unique identifier for the snapshot manager Graft node.
const NodeID graft.ID = "engine.snapshot"

func init() {
	graft.Register(graft.Node[*Manager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			compiler.NodeID,
			resolver.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Manager, error) {
			comp, err := graft.Dep[ports.Compiler](ctx)
			if err != nil {
				return nil, err
			}

			res, err := graft.Dep[ports.ImportResolver](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewManager(comp, res, log), nil
		},
	})
}
