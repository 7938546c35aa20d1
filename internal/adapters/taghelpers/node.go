package taghelpers

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// NodeID is the unique identifier for the tag-helper provider Graft node.
const NodeID graft.ID = "adapter.taghelpers"

// builtins are the tag helpers shipped with the compiler itself.
var builtins = []domain.TagHelper{
	{Name: "FormTag", Assembly: "weft.builtin"},
	{Name: "InputTag", Assembly: "weft.builtin"},
	{Name: "LinkTag", Assembly: "weft.builtin"},
}

func init() {
	graft.Register(graft.Node[ports.TagHelperProvider]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TagHelperProvider, error) {
			return New(builtins), nil
		},
	})
}
