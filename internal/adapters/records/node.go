package records

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/core/ports"
)

const NodeID graft.ID = "adapter.compile_records"

func init() {
	graft.Register(graft.Node[ports.CompileRecordStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CompileRecordStore, error) {
			return NewStore(), nil
		},
	})
}
