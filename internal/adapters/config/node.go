package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/adapters/text"
	"go.trai.ch/loom/internal/core/ports"
)

const NodeID graft.ID = "adapter.config_loader"

func init() {
	graft.Register(graft.Node[ports.ProjectLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{text.NodeID},
		Run: func(ctx context.Context) (ports.ProjectLoader, error) {
			store, err := graft.Dep[*text.Store](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(store), nil
		},
	})
}
