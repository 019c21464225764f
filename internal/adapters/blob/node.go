package blob

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/assetpipe/internal/adapters/fs"
	"go.trai.ch/assetpipe/internal/core/ports"
)

// NodeID is the unique identifier for the blob factory Graft node.
const NodeID graft.ID = "adapter.blob"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.OpenerNodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			opener, err := graft.Dep[ports.SourceOpener](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(opener), nil
		},
	})
}
