// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/assetpipe/internal/adapters/blob"
	_ "go.trai.ch/assetpipe/internal/adapters/config"
	_ "go.trai.ch/assetpipe/internal/adapters/fs"
	_ "go.trai.ch/assetpipe/internal/adapters/logger"
	_ "go.trai.ch/assetpipe/internal/adapters/metrics"
	_ "go.trai.ch/assetpipe/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/assetpipe/internal/app"
	_ "go.trai.ch/assetpipe/internal/engine/cache"
	_ "go.trai.ch/assetpipe/internal/engine/depgraph"
	_ "go.trai.ch/assetpipe/internal/engine/loader"
	_ "go.trai.ch/assetpipe/internal/engine/streamer"
)
