package blob

import (
	"bytes"
	"context"
	"io"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Factory = (*Factory)(nil)

const readBlock = 256 * 1024

// Factory materializes blobs from sources, decompressing by extension.
type Factory struct {
	opener ports.SourceOpener
}

// NewFactory creates a Factory reading through opener.
func NewFactory(opener ports.SourceOpener) *Factory {
	return &Factory{opener: opener}
}

// Create reads req.Locator fully. Reading stops early when ctx is done.
func (f *Factory) Create(ctx context.Context, req domain.LoadRequest) (domain.Asset, error) {
	src, err := f.opener.Open(req.Locator)
	if err != nil {
		return nil, err
	}
	defer src.Close() //nolint:errcheck // Read-only source

	codec := CodecFor(req.Locator)
	r, release, err := codec.decoder(&ctxReader{ctx: ctx, r: src})
	if err != nil {
		return nil, zerr.With(err, "locator", req.Locator)
	}
	defer release()

	var buf bytes.Buffer
	if codec == CodecNone && src.Size() > 0 {
		buf.Grow(int(src.Size()))
	}
	if _, err := io.CopyBuffer(&buf, r, make([]byte, readBlock)); err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		return nil, zerr.With(zerr.With(zerr.Wrap(err, "failed to decode source"), "locator", req.Locator), "codec", codec.String())
	}

	return NewBlob(req.ID, req.Locator, codec, buf.Bytes()), nil
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
