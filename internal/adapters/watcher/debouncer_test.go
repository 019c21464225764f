package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/assetpipe/internal/adapters/watcher"
)

func TestDebouncer_Coalesces(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls [][]string
		)
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, paths)
		})

		d.Add("a.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("a.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("a.yaml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, [][]string{{"a.yaml"}}, calls)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		called := false
		d := watcher.NewDebouncer(100*time.Millisecond, func([]string) { called = true })

		d.Add("a.yaml")
		d.Stop()

		time.Sleep(time.Second)
		synctest.Wait()
		assert.False(t, called)
	})
}
