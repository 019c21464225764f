package app

import (
	"context"

	"github.com/grindlemire/graft"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/assetpipe/internal/adapters/blob"      //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
)

const (
	// PipelineNodeID is the unique identifier for the Pipeline Graft node.
	PipelineNodeID graft.ID = "app.pipeline"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        PipelineNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.ConfigNodeID,
			depgraph.NodeID,
			cache.NodeID,
			loader.NodeID,
			streamer.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			blob.NodeID,
		},
		Run: runPipelineNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			PipelineNodeID,
			logger.NodeID,
			config.NodeID,
			fs.OpenerNodeID,
			fs.ResolverNodeID,
			fs.HasherNodeID,
			blob.NodeID,
			metrics.NodeID,
			telemetry.ProviderNodeID,
		},
		Run: runComponentsNode,
	})
}

func runPipelineNode(ctx context.Context) (*Pipeline, error) {
	cfg, err := graft.Dep[domain.Config](ctx)
	if err != nil {
		return nil, err
	}
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
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	blobs, err := graft.Dep[*blob.Factory](ctx)
	if err != nil {
		return nil, err
	}

	if ls, ok := log.(levelSetter); ok {
		ls.SetLevel(cfg.Log.Level)
	}
	p := New(cfg, g, c, l, s, log, tracer)
	if err := p.RegisterFactory(domain.TypeBlob, blobs); err != nil {
		return nil, err
	}
	return p, nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	p, err := graft.Dep[*Pipeline](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	cl, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	opener, err := graft.Dep[ports.SourceOpener](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[*fs.Resolver](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[*fs.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	blobs, err := graft.Dep[*blob.Factory](ctx)
	if err != nil {
		return nil, err
	}
	m, err := graft.Dep[*metrics.Metrics](ctx)
	if err != nil {
		return nil, err
	}
	tp, err := graft.Dep[*sdktrace.TracerProvider](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		Pipeline:       p,
		Logger:         log,
		ConfigLoader:   cl,
		Opener:         opener,
		Resolver:       resolver,
		Hasher:         hasher,
		Blobs:          blobs,
		Metrics:        m,
		TracerProvider: tp,
	}, nil
}
