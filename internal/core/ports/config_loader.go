package ports

import "go.trai.ch/assetpipe/internal/core/domain"

// ConfigLoader defines the interface for loading pipeline configuration and manifests.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path. A missing file yields the defaults.
	Load(path string) (domain.Config, error)
	// LoadManifest reads an asset manifest describing assets and their dependencies.
	LoadManifest(path string) (*domain.Manifest, error)
}
