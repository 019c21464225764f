package app

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/assetpipe/internal/adapters/blob"    //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/adapters/metrics" //nolint:depguard // Wired in app layer
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Components contains all the initialized application components.
type Components struct {
	Pipeline       *Pipeline
	Logger         ports.Logger
	ConfigLoader   ports.ConfigLoader
	Opener         ports.SourceOpener
	Resolver       *fs.Resolver
	Hasher         *fs.Hasher
	Blobs          *blob.Factory
	Metrics        *metrics.Metrics
	TracerProvider *sdktrace.TracerProvider
}

// Close shuts the pipeline down and flushes pending spans.
func (c *Components) Close(ctx context.Context) error {
	c.Pipeline.Close()
	if c.TracerProvider == nil {
		return nil
	}
	if err := c.TracerProvider.Shutdown(ctx); err != nil {
		return zerr.Wrap(err, "failed to shut down tracer provider")
	}
	return nil
}
