package blob_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/assetpipe/internal/adapters/blob"
	"go.trai.ch/assetpipe/internal/adapters/fs"
	"go.trai.ch/assetpipe/internal/core/domain"
)

var payload = bytes.Repeat([]byte("vertex data "), 1000)

func writeZstd(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func writeLZ4(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	enc := lz4.NewWriter(&buf)
	_, err := enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func request(locator string) domain.LoadRequest {
	return domain.LoadRequest{ID: domain.NewIdentity(locator), Locator: locator, Type: domain.TypeBlob}
}

func TestFactory_Create(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mesh.bin"), payload, 0o600))
	writeZstd(t, filepath.Join(dir, "mesh.bin.zst"))
	writeLZ4(t, filepath.Join(dir, "mesh.bin.lz4"))

	factory := blob.NewFactory(fs.NewOpener(dir))

	tests := []struct {
		locator string
		codec   blob.Codec
	}{
		{"mesh.bin", blob.CodecNone},
		{"mesh.bin.zst", blob.CodecZstd},
		{"mesh.bin.lz4", blob.CodecLZ4},
	}
	for _, tt := range tests {
		t.Run(tt.codec.String(), func(t *testing.T) {
			asset, err := factory.Create(context.Background(), request(tt.locator))
			require.NoError(t, err)

			b, ok := asset.(*blob.Blob)
			require.True(t, ok)
			assert.Equal(t, tt.locator, b.ID().String())
			assert.Equal(t, tt.codec, b.Codec())
			assert.Equal(t, payload, b.Bytes())
			assert.Equal(t, int64(len(payload)), b.Footprint())

			require.NoError(t, b.Dispose())
			assert.Nil(t, b.Bytes())
			assert.Zero(t, b.Footprint())
		})
	}
}

func TestFactory_Create_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.zst"), []byte("not zstd at all"), 0o600))

	factory := blob.NewFactory(fs.NewOpener(dir))

	_, err := factory.Create(context.Background(), request("missing.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = factory.Create(context.Background(), request("corrupt.zst"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
}

func TestFactory_Create_Cancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mesh.bin"), payload, 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := blob.NewFactory(fs.NewOpener(dir)).Create(ctx, request("mesh.bin"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCodecFor(t *testing.T) {
	assert.Equal(t, blob.CodecZstd, blob.CodecFor("a/b.ZST"))
	assert.Equal(t, blob.CodecZstd, blob.CodecFor("b.zstd"))
	assert.Equal(t, blob.CodecLZ4, blob.CodecFor("b.lz4"))
	assert.Equal(t, blob.CodecNone, blob.CodecFor("b.png"))
	assert.Equal(t, "unknown(9)", blob.Codec(9).String())
}
