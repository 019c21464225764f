// Package blob provides a Factory that loads raw, zstd- or lz4-compressed files as byte assets.
package blob

import (
	"sync"

	"go.trai.ch/assetpipe/internal/core/domain"
)

var _ domain.Asset = (*Blob)(nil)

// Blob is an asset holding the decoded bytes of a source.
type Blob struct {
	id      domain.Identity
	locator string
	codec   Codec

	mu   sync.RWMutex
	data []byte
}

// NewBlob wraps data as an asset.
func NewBlob(id domain.Identity, locator string, codec Codec, data []byte) *Blob {
	return &Blob{id: id, locator: locator, codec: codec, data: data}
}

// ID returns the identity the blob was loaded under.
func (b *Blob) ID() domain.Identity { return b.id }

// Locator returns the source the blob was read from.
func (b *Blob) Locator() string { return b.locator }

// Codec returns the compression the source was stored with.
func (b *Blob) Codec() Codec { return b.codec }

// Footprint returns the decoded size in bytes.
func (b *Blob) Footprint() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.data))
}

// Bytes returns the decoded content, or nil once disposed.
func (b *Blob) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data
}

// Dispose drops the content.
func (b *Blob) Dispose() error {
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
	return nil
}
