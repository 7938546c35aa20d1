package text

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the text store Graft node.
const NodeID graft.ID = "adapter.text"

// defaultCacheBytes bounds the in-process file content cache.
const defaultCacheBytes = 64 << 20

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Store, error) {
			return NewStore(defaultCacheBytes)
		},
	})
}
