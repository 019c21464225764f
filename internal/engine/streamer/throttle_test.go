package streamer_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/assetpipe/internal/engine/streamer"
)

func TestThrottle_SleepsProportionally(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		th := streamer.NewThrottle(1000)
		ctx := context.Background()

		start := time.Now()
		require.NoError(t, th.Wait(ctx, 990))
		assert.Zero(t, time.Since(start))

		require.NoError(t, th.Wait(ctx, 30))
		assert.Equal(t, 20*time.Millisecond, time.Since(start))
		assert.Equal(t, uint64(1), th.Events())
		assert.Equal(t, int64(1020), th.WindowBytes())
	})
}

func TestThrottle_CapsSleep(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		th := streamer.NewThrottle(100)
		ctx := context.Background()

		start := time.Now()
		require.NoError(t, th.Wait(ctx, 60))
		require.NoError(t, th.Wait(ctx, 60))
		require.NoError(t, th.Wait(ctx, 1000))

		assert.Equal(t, 200*time.Millisecond, time.Since(start))
		assert.Equal(t, 200*time.Millisecond, th.Throttled())
	})
}

func TestThrottle_WindowResets(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		th := streamer.NewThrottle(100)
		ctx := context.Background()

		require.NoError(t, th.Wait(ctx, 100))
		time.Sleep(time.Second)
		assert.Zero(t, th.WindowBytes())

		start := time.Now()
		require.NoError(t, th.Wait(ctx, 100))
		assert.Zero(t, time.Since(start))
		assert.Zero(t, th.Events())
	})
}

func TestThrottle_Disabled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		th := streamer.NewThrottle(0)

		start := time.Now()
		for range 10 {
			require.NoError(t, th.Wait(context.Background(), 1<<30))
		}
		assert.Zero(t, time.Since(start))
	})
}

func TestThrottle_Cancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		th := streamer.NewThrottle(10)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, th.Wait(context.Background(), 10))
		err := th.Wait(ctx, 10)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int64(10), th.WindowBytes(), "a cancelled chunk is not accounted")
	})
}
