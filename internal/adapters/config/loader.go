// Package config reads pipeline settings and asset manifests from YAML, TOML or
// JSON files.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "ASSETPIPE_CONFIG"

// DefaultFilename is the config file looked up in the working directory.
const DefaultFilename = "assetpipe.yaml"

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = zerr.New("unsupported file format")

// FileConfigLoader implements ports.ConfigLoader on top of the local filesystem.
type FileConfigLoader struct {
	log ports.Logger
}

// NewLoader creates a FileConfigLoader.
func NewLoader(log ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{log: log}
}

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// Load reads the configuration at path over the defaults. An empty path or a
// missing file yields the defaults.
func (l *FileConfigLoader) Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var file File
	if err := decodeFile(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.log.Warn("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, err
	}
	file.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// LoadManifest reads an asset manifest. Dependencies must name assets declared
// in the same manifest.
func (l *FileConfigLoader) LoadManifest(path string) (*domain.Manifest, error) {
	var file ManifestFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}

	m := &domain.Manifest{Assets: make(map[string]domain.ManifestAsset, len(file.Assets))}
	for name, dto := range file.Assets {
		if strings.TrimSpace(name) == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidIdentity, "empty asset name"), "path", path)
		}
		for _, dep := range dto.DependsOn {
			if _, ok := file.Assets[dep]; !ok {
				err := zerr.With(zerr.Wrap(domain.ErrNodeNotFound, "missing dependency"), "asset", name)
				return nil, zerr.With(err, "missing_dependency", dep)
			}
		}
		m.Assets[name] = domain.ManifestAsset{
			Type:      dto.Type,
			Locator:   dto.Locator,
			Priority:  dto.Priority,
			DependsOn: dto.DependsOn,
		}
	}
	return m, nil
}

// ResolvePath returns explicit if set, then $ASSETPIPE_CONFIG, then
// DefaultFilename inside cwd.
func ResolvePath(explicit, cwd string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return filepath.Join(cwd, DefaultFilename)
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	case ".toml":
		err = toml.Unmarshal(data, out)
	case ".json":
		err = json.Unmarshal(data, out)
	default:
		return zerr.With(zerr.With(zerr.Wrap(ErrUnsupportedFormat, "cannot decode"), "path", path), "extension", ext)
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse file"), "path", path)
	}
	return nil
}
