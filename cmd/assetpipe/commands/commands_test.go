package commands_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/assetpipe/cmd/assetpipe/commands"
	"go.trai.ch/assetpipe/internal/adapters/blob"
	"go.trai.ch/assetpipe/internal/adapters/config"
	"go.trai.ch/assetpipe/internal/adapters/fs"
	"go.trai.ch/assetpipe/internal/adapters/logger"
	"go.trai.ch/assetpipe/internal/adapters/metrics"
	"go.trai.ch/assetpipe/internal/adapters/telemetry"
	"go.trai.ch/assetpipe/internal/app"
	"go.trai.ch/assetpipe/internal/build"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
)

func newComponents(t *testing.T) *app.Components {
	t.Helper()
	log := logger.New()
	log.SetOutput(io.Discard)
	tracer := telemetry.NewNoOpTracer()
	cfg := domain.DefaultConfig()
	opener := fs.NewOpener("")

	g := depgraph.New(log)
	c := cache.New(cfg.Cache, log)
	l := loader.New(cfg.Loader, log, tracer)
	s := streamer.New(cfg.Streaming, opener, log, tracer)

	p := app.New(cfg, g, c, l, s, log, tracer)
	blobs := blob.NewFactory(opener)
	require.NoError(t, p.RegisterFactory(domain.TypeBlob, blobs))

	comps := &app.Components{
		Pipeline:     p,
		Logger:       log,
		ConfigLoader: config.NewLoader(log),
		Opener:       opener,
		Resolver:     fs.NewResolver(fs.NewWalker()),
		Hasher:       fs.NewHasher(),
		Blobs:        blobs,
		Metrics:      metrics.New(g, c, l, s),
	}
	t.Cleanup(func() { _ = comps.Close(context.Background()) })
	return comps
}

func execute(t *testing.T, comps *app.Components, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := commands.New(comps)
	cli.SetOutput(&out)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, newComponents(t), "version")
	require.NoError(t, err)
	assert.Equal(t, build.Version+"\n", out)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tex", "a.png"), "aaaa")
	writeFile(t, filepath.Join(dir, "tex", "b.png"), "bbbbbb")
	writeFile(t, filepath.Join(dir, "tex", "skip.tmp"), "x")
	t.Chdir(dir)

	comps := newComponents(t)
	out, err := execute(t, comps, "load", "tex", "--ignore", "*.tmp")
	require.NoError(t, err)

	assert.Contains(t, out, "loaded 2 assets (10 bytes cached)")
	assert.Contains(t, out, "fingerprint: ")
	assert.Equal(t, 2, comps.Pipeline.Stats().Cache.Entries)
}

func TestLoad_NoArgsPrintsHelp(t *testing.T) {
	out, err := execute(t, newComponents(t), "load")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestLoad_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, newComponents(t), "load", "nothing.bin")
	assert.ErrorIs(t, err, fs.ErrLocatorNotFound)
}

const manifest = `assets:
  A:
    dependsOn: [B, C]
  B:
    dependsOn: [D]
  C:
    dependsOn: [D]
  D: {}
`

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.yaml")
	writeFile(t, path, manifest)

	out, err := execute(t, newComponents(t), "resolve", "-m", path, "A")
	require.NoError(t, err)

	assert.Contains(t, out, "level 0: D\n")
	assert.Contains(t, out, "level 2: A\n")
	assert.NotContains(t, out, "cycles:")
}

func TestResolve_UnknownAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.yaml")
	writeFile(t, path, manifest)

	_, err := execute(t, newComponents(t), "resolve", "-m", path, "ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.bin")
	writeFile(t, path, "0123456789")

	out, err := execute(t, newComponents(t), "stream", path, "--chunk-size", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "chunk 1/3 4 bytes")
	assert.Contains(t, out, "chunk 3/3 2 bytes (100%)")
	assert.Contains(t, out, "streamed 10 bytes in 3 chunks via buffered")
	assert.Contains(t, out, "ok\n")
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assetpipe.yaml")
	writeFile(t, path, "streaming:\n  chunk_size: 3\n")

	comps := newComponents(t)
	_, err := execute(t, comps, "-c", path, "version")
	require.NoError(t, err)
	assert.Equal(t, 3, comps.Pipeline.Config().Streaming.ChunkSize)
}

func TestServe_StopsWithContext(t *testing.T) {
	comps := newComponents(t)
	cli := commands.New(comps)
	cli.SetOutput(io.Discard)
	cli.SetArgs([]string{"serve", "--addr", "127.0.0.1:0"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, cli.Execute(ctx))
}
