package loader_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/assetpipe/internal/adapters/telemetry"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/assetpipe/internal/core/ports/mocks"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.uber.org/mock/gomock"
)

type fakeAsset struct {
	id       domain.Identity
	disposed atomic.Int32
}

func (a *fakeAsset) ID() domain.Identity { return a.id }
func (a *fakeAsset) Footprint() int64    { return 1 }
func (a *fakeAsset) Dispose() error {
	a.disposed.Add(1)
	return nil
}

func testConfig() domain.LoaderConfig {
	return domain.LoaderConfig{
		HighWorkers:             2,
		NormalWorkers:           2,
		LowWorkers:              2,
		KeepAlive:               time.Minute,
		Timeout:                 10 * time.Second,
		MaxConcurrentLoads:      4,
		HighPriorityThreshold:   80,
		NormalPriorityThreshold: 40,
		SweepInterval:           time.Hour,
	}
}

func newLoader(t *testing.T, cfg domain.LoaderConfig) (*loader.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	return loader.New(cfg, log, telemetry.NewNoOpTracer()), log
}

func request(name string, priority int) domain.LoadRequest {
	return domain.LoadRequest{
		ID:       domain.NewIdentity(name),
		Locator:  name + ".bin",
		Type:     domain.TypeBlob,
		Priority: priority,
	}
}

// instant returns a fresh asset immediately.
func instant() ports.Factory {
	return ports.FactoryFunc(func(_ context.Context, req domain.LoadRequest) (domain.Asset, error) {
		return &fakeAsset{id: req.ID}, nil
	})
}

// gated blocks until release is closed or ctx is done.
func gated(release <-chan struct{}) ports.Factory {
	return ports.FactoryFunc(func(ctx context.Context, req domain.LoadRequest) (domain.Asset, error) {
		select {
		case <-release:
			return &fakeAsset{id: req.ID}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

func TestLoader_Deduplicates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, _ := newLoader(t, testConfig())
		release := make(chan struct{})
		var calls atomic.Int32
		factory := ports.FactoryFunc(func(ctx context.Context, req domain.LoadRequest) (domain.Asset, error) {
			calls.Add(1)
			return gated(release).Create(ctx, req)
		})

		h1, err := l.Submit(context.Background(), request("hero", 50), factory)
		require.NoError(t, err)
		h2, err := l.Submit(context.Background(), request("hero", 50), factory)
		require.NoError(t, err)
		assert.Same(t, h1, h2)

		synctest.Wait()
		assert.True(t, l.IsLoading(domain.NewIdentity("hero")))
		close(release)

		asset, err := h1.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "hero", asset.ID().String())
		assert.Equal(t, int32(1), calls.Load())

		s := l.Stats()
		assert.Equal(t, uint64(1), s.DedupHits)
		assert.Equal(t, uint64(1), s.Submitted)
		assert.Equal(t, uint64(1), s.Completed)
		assert.False(t, l.IsLoading(domain.NewIdentity("hero")))

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_Timeout_DisposesLateAsset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.Timeout = time.Second
		l, log := newLoader(t, cfg)
		log.EXPECT().Error(gomock.Any(), gomock.Any()).Times(1)

		release := make(chan struct{})
		var produced *fakeAsset
		factory := ports.FactoryFunc(func(_ context.Context, req domain.LoadRequest) (domain.Asset, error) {
			<-release
			produced = &fakeAsset{id: req.ID}
			return produced, nil
		})

		h, err := l.Submit(context.Background(), request("slow", 50), factory)
		require.NoError(t, err)

		start := time.Now()
		_, err = h.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrLoadTimeout)
		assert.Equal(t, time.Second, time.Since(start))

		// The worker slot stays held until the factory returns.
		assert.Equal(t, 1, l.Active())

		close(release)
		synctest.Wait()
		require.NotNil(t, produced)
		assert.Equal(t, int32(1), produced.disposed.Load())
		assert.Equal(t, 0, l.Active())

		s := l.Stats()
		assert.Equal(t, uint64(1), s.TimedOut)
		assert.Equal(t, uint64(1), s.Failed)
		assert.Equal(t, uint64(0), s.Completed)

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_Cancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrentLoads = 1
		l, _ := newLoader(t, cfg)

		release := make(chan struct{})
		defer close(release)
		running, err := l.Submit(context.Background(), request("running", 50), gated(release))
		require.NoError(t, err)

		var queuedCalls atomic.Int32
		queued, err := l.Submit(context.Background(), request("queued", 50),
			ports.FactoryFunc(func(_ context.Context, req domain.LoadRequest) (domain.Asset, error) {
				queuedCalls.Add(1)
				return &fakeAsset{id: req.ID}, nil
			}))
		require.NoError(t, err)

		synctest.Wait()
		assert.Equal(t, 1, l.Active())
		assert.Equal(t, 1, l.Pending())

		assert.True(t, l.Cancel(queued.ID()))
		assert.False(t, l.Cancel(queued.ID()), "second cancel is a no-op")
		_, err = queued.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrLoadCancelled)
		assert.Equal(t, 0, l.Pending())

		assert.True(t, l.Cancel(running.ID()))
		_, err = running.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrLoadCancelled)

		synctest.Wait()
		assert.Equal(t, int32(0), queuedCalls.Load())
		assert.Equal(t, 0, l.Active())
		assert.False(t, l.Cancel(domain.NewIdentity("unknown")))

		s := l.Stats()
		assert.Equal(t, uint64(2), s.Cancelled)
		assert.Equal(t, uint64(0), s.Failed)

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_FactoryPanic(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, log := newLoader(t, testConfig())
		log.EXPECT().Error(gomock.Any(), gomock.Any()).Times(1)

		h, err := l.Submit(context.Background(), request("boom", 50),
			ports.FactoryFunc(func(context.Context, domain.LoadRequest) (domain.Asset, error) {
				panic("decoder exploded")
			}))
		require.NoError(t, err)

		_, err = h.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrFactoryPanic)
		assert.Contains(t, err.Error(), "factory panicked")

		// The pool survives a panicking factory.
		h2, err := l.Submit(context.Background(), request("fine", 50), instant())
		require.NoError(t, err)
		_, err = h2.Wait(context.Background())
		require.NoError(t, err)

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_NilAsset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, log := newLoader(t, testConfig())
		log.EXPECT().Error(gomock.Any(), gomock.Any()).Times(1)

		h, err := l.Submit(context.Background(), request("empty", 50),
			ports.FactoryFunc(func(context.Context, domain.LoadRequest) (domain.Asset, error) {
				return nil, nil
			}))
		require.NoError(t, err)

		_, err = h.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrNilAsset)

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_FactoryError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, log := newLoader(t, testConfig())
		log.EXPECT().Error(gomock.Any(), gomock.Any()).Times(1)
		errDecode := errors.New("bad header")

		h, err := l.Submit(context.Background(), request("broken", 50),
			ports.FactoryFunc(func(context.Context, domain.LoadRequest) (domain.Asset, error) {
				return nil, errDecode
			}))
		require.NoError(t, err)

		_, err = h.Wait(context.Background())
		require.ErrorIs(t, err, errDecode)
		assert.Equal(t, uint64(1), l.Stats().Failed)
		assert.Equal(t, 0.0, l.Stats().SuccessRate())

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_PriorityOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrentLoads = 1
		l, _ := newLoader(t, cfg)

		release := make(chan struct{})
		blocker, err := l.Submit(context.Background(), request("blocker", 100), gated(release))
		require.NoError(t, err)
		synctest.Wait()

		var mu sync.Mutex
		var order []string
		record := ports.FactoryFunc(func(_ context.Context, req domain.LoadRequest) (domain.Asset, error) {
			mu.Lock()
			order = append(order, req.ID.String())
			mu.Unlock()
			return &fakeAsset{id: req.ID}, nil
		})

		var handles []*loader.Handle
		for _, r := range []domain.LoadRequest{request("low", 10), request("mid", 50), request("high", 90), request("mid2", 50)} {
			h, err := l.Submit(context.Background(), r, record)
			require.NoError(t, err)
			handles = append(handles, h)
		}

		close(release)
		_, err = blocker.Wait(context.Background())
		require.NoError(t, err)
		for _, h := range handles {
			_, err := h.Wait(context.Background())
			require.NoError(t, err)
		}

		assert.Equal(t, []string{"high", "mid", "mid2", "low"}, order)

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_TierSaturation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.LowWorkers = 1
		l, _ := newLoader(t, cfg)

		release := make(chan struct{})
		var handles []*loader.Handle
		for _, r := range []domain.LoadRequest{request("bulk1", 5), request("bulk2", 5), request("hud", 95)} {
			h, err := l.Submit(context.Background(), r, gated(release))
			require.NoError(t, err)
			handles = append(handles, h)
		}
		synctest.Wait()

		s := l.Stats()
		assert.Equal(t, 2, s.Active)
		assert.Equal(t, 1, s.Queued)
		assert.Equal(t, 1, s.TierActive["low"])
		assert.Equal(t, 1, s.TierActive["high"])
		assert.Equal(t, 0, s.TierActive["normal"])

		close(release)
		for _, h := range handles {
			_, err := h.Wait(context.Background())
			require.NoError(t, err)
		}

		synctest.Wait()
		s = l.Stats()
		assert.Equal(t, uint64(3), s.Completed)
		assert.Equal(t, s.Submitted, s.Completed+s.Failed+s.Cancelled+uint64(s.Queued+s.Active))
		assert.Equal(t, 1.0, s.SuccessRate())

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_SweeperWarnsAndSweeps(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.SweepInterval = time.Second
		l, log := newLoader(t, cfg)
		log.EXPECT().Warn("asset load is slow", gomock.Any()).Times(1)
		log.EXPECT().Error(gomock.Any(), gomock.Any()).Times(1)

		release := make(chan struct{})
		slow, err := l.Submit(context.Background(), request("slow", 50), gated(release))
		require.NoError(t, err)

		// Timeout/2 is 5s: the tick at 6s warns, later ticks stay quiet.
		time.Sleep(8 * time.Second)
		close(release)
		_, err = slow.Wait(context.Background())
		require.NoError(t, err)

		failed, err := l.Submit(context.Background(), request("failed", 50),
			ports.FactoryFunc(func(context.Context, domain.LoadRequest) (domain.Asset, error) {
				return nil, errors.New("missing file")
			}))
		require.NoError(t, err)
		_, err = failed.Wait(context.Background())
		require.Error(t, err)

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, uint64(1), l.Stats().Swept)

		// A swept failure can be retried with a fresh handle.
		retry, err := l.Submit(context.Background(), request("failed", 50), instant())
		require.NoError(t, err)
		assert.NotSame(t, failed, retry)
		_, err = retry.Wait(context.Background())
		require.NoError(t, err)

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_SubmitValidation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, _ := newLoader(t, testConfig())

		_, err := l.Submit(context.Background(), domain.LoadRequest{Type: domain.TypeBlob}, instant())
		require.ErrorIs(t, err, domain.ErrInvalidIdentity)

		_, err = l.Submit(context.Background(), request("hero", 50), nil)
		require.ErrorIs(t, err, domain.ErrNilFactory)

		l.Close()
		synctest.Wait()

		_, err = l.Submit(context.Background(), request("hero", 50), instant())
		require.ErrorIs(t, err, domain.ErrLoaderClosed)
	})
}

func TestLoader_Close(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrentLoads = 1
		l, _ := newLoader(t, cfg)

		release := make(chan struct{})
		defer close(release)
		running, err := l.Submit(context.Background(), request("running", 50), gated(release))
		require.NoError(t, err)
		queued, err := l.Submit(context.Background(), request("queued", 50), instant())
		require.NoError(t, err)
		synctest.Wait()

		l.Close()
		l.Close()

		_, err = queued.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrLoaderClosed)
		_, err = running.Wait(context.Background())
		require.ErrorIs(t, err, domain.ErrLoaderClosed)

		synctest.Wait()
		assert.Equal(t, uint64(2), l.Stats().Cancelled)
	})
}

func TestLoader_Reconfigure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrentLoads = 1
		l, _ := newLoader(t, cfg)

		release := make(chan struct{})
		var handles []*loader.Handle
		for _, name := range []string{"a", "b", "c"} {
			h, err := l.Submit(context.Background(), request(name, 50), gated(release))
			require.NoError(t, err)
			handles = append(handles, h)
		}
		synctest.Wait()
		assert.Equal(t, 1, l.Active())

		cfg.MaxConcurrentLoads = 3
		cfg.NormalWorkers = 3
		l.Reconfigure(cfg)
		synctest.Wait()
		assert.Equal(t, 3, l.Active())

		close(release)
		for _, h := range handles {
			_, err := h.Wait(context.Background())
			require.NoError(t, err)
		}

		l.Close()
		synctest.Wait()
	})
}

func TestLoader_StatsNeverShowMoreFinishedThanStarted(t *testing.T) {
	l, log := newLoader(t, testConfig())
	log.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()
	defer l.Close()

	boom := errors.New("boom")
	var n atomic.Int64
	factory := ports.FactoryFunc(func(_ context.Context, req domain.LoadRequest) (domain.Asset, error) {
		if n.Add(1)%2 == 0 {
			return nil, boom
		}
		return &fakeAsset{id: req.ID}, nil
	})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := l.Stats()
			if s.Completed+s.Failed > s.Started || s.Started > s.Submitted {
				t.Errorf("inconsistent snapshot: %+v", s)
				return
			}
		}
	})

	for i := range 500 {
		h, err := l.Submit(context.Background(), request(fmt.Sprintf("asset-%d", i), i%100), factory)
		require.NoError(t, err)
		_, _ = h.Wait(context.Background())
	}
	close(stop)
	wg.Wait()

	s := l.Stats()
	assert.Equal(t, uint64(500), s.Completed+s.Failed)
	assert.Equal(t, uint64(500), s.Started)
}
