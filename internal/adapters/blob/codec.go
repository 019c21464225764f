package blob

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.trai.ch/zerr"
)

// Codec identifies how a source is compressed on disk.
type Codec uint8

const (
	// CodecNone is stored as-is.
	CodecNone Codec = iota
	// CodecZstd is a zstd stream (.zst).
	CodecZstd
	// CodecLZ4 is an LZ4 frame (.lz4).
	CodecLZ4
)

// String returns the human-readable name of a codec.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// CodecFor picks the codec from the locator's extension.
func CodecFor(locator string) Codec {
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".zst", ".zstd":
		return CodecZstd
	case ".lz4":
		return CodecLZ4
	default:
		return CodecNone
	}
}

// decoder wraps r so that reads yield decompressed bytes.
// The returned close function releases decoder resources.
func (c Codec) decoder(r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CodecZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, zerr.Wrap(err, "failed to create zstd decoder")
		}
		return dec, dec.Close, nil
	case CodecLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}
