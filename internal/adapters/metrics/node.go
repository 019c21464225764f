package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
)

// NodeID is the unique identifier for the metrics Graft node.
const NodeID graft.ID = "adapter.metrics"

func init() {
	graft.Register(graft.Node[*Metrics]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{depgraph.NodeID, cache.NodeID, loader.NodeID, streamer.NodeID},
		Run: func(ctx context.Context) (*Metrics, error) {
			g, err := graft.Dep[*depgraph.Graph](ctx)
			if err != nil {
				return nil, err
			}
			c, err := graft.Dep[*cache.Cache](ctx)
			if err != nil {
				return nil, err
			}
			l, err := graft.Dep[*loader.Loader](ctx)
			if err != nil {
				return nil, err
			}
			s, err := graft.Dep[*streamer.Streamer](ctx)
			if err != nil {
				return nil, err
			}
			return New(g, c, l, s), nil
		},
	})
}
