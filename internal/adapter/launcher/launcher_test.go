package launcher

import (
	"context"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickfx/internal/adapter/cache"
	"quickfx/internal/domain/model"
	"quickfx/internal/metrics"
	"quickfx/pkg/logger"
)

type MockRefresher struct {
	RefreshFunc func(ctx context.Context, pair model.CurrencyPair) error
}

func (m *MockRefresher) Refresh(ctx context.Context, pair model.CurrencyPair) error {
	return m.RefreshFunc(ctx, pair)
}

var usdJpy = model.CurrencyPair{Base: "USD", Term: "JPY"}

func newMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

func TestBackground_CoalescesConcurrentLaunches(t *testing.T) {
	store := cache.NewMemoryCache(logger.Nop())
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32

	refresher := &MockRefresher{
		RefreshFunc: func(ctx context.Context, pair model.CurrencyPair) error {
			calls.Add(1)
			started <- struct{}{}
			<-release
			return store.ReleasePending(ctx, pair.Key())
		},
	}
	bg := NewBackground(refresher, store, 30*time.Second, newMetrics(), logger.Nop())
	ctx := context.Background()

	ok, err := bg.Launch(ctx, usdJpy)
	require.NoError(t, err)
	assert.True(t, ok)
	<-started

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bg.Launch(ctx, usdJpy)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	running, err := bg.Running(ctx, usdJpy)
	require.NoError(t, err)
	assert.True(t, running)

	close(release)
	bg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	running, err = bg.Running(ctx, usdJpy)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestBackground_SkipsPairPendingElsewhere(t *testing.T) {
	store := cache.NewMemoryCache(logger.Nop())
	ctx := context.Background()

	ok, err := store.AcquirePending(ctx, usdJpy.Key(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	var calls atomic.Int32
	refresher := &MockRefresher{
		RefreshFunc: func(ctx context.Context, pair model.CurrencyPair) error {
			calls.Add(1)
			return nil
		},
	}
	bg := NewBackground(refresher, store, 30*time.Second, newMetrics(), logger.Nop())

	running, err := bg.Running(ctx, usdJpy)
	require.NoError(t, err)
	assert.True(t, running)

	_, err = bg.Launch(ctx, usdJpy)
	require.NoError(t, err)
	bg.Wait()

	assert.Zero(t, calls.Load())
}

func TestBackground_JobOutlivesCallerContext(t *testing.T) {
	store := cache.NewMemoryCache(logger.Nop())
	var jobErr atomic.Value

	refresher := &MockRefresher{
		RefreshFunc: func(ctx context.Context, pair model.CurrencyPair) error {
			time.Sleep(20 * time.Millisecond)
			jobErr.Store(ctx.Err() == nil)
			return nil
		},
	}
	bg := NewBackground(refresher, store, 30*time.Second, newMetrics(), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := bg.Launch(ctx, usdJpy)
	require.NoError(t, err)
	cancel()
	bg.Wait()

	assert.Equal(t, true, jobErr.Load())
}

func TestDetached_Launch(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not available")
	}

	store := cache.NewMemoryCache(logger.Nop())
	var spawned atomic.Int32
	command := func(pair model.CurrencyPair) *exec.Cmd {
		spawned.Add(1)
		return exec.Command("true")
	}
	d := NewDetached(store, command, 30*time.Second, newMetrics(), logger.Nop())
	ctx := context.Background()

	ok, err := d.Launch(ctx, usdJpy)
	require.NoError(t, err)
	assert.True(t, ok)

	running, err := d.Running(ctx, usdJpy)
	require.NoError(t, err)
	assert.True(t, running, "marker stays until the worker clears it")

	ok, err = d.Launch(ctx, usdJpy)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), spawned.Load())
}

func TestDetached_StartFailureReleasesMarker(t *testing.T) {
	store := cache.NewMemoryCache(logger.Nop())
	command := func(pair model.CurrencyPair) *exec.Cmd {
		return exec.Command("/nonexistent/quickfx-worker")
	}
	d := NewDetached(store, command, 30*time.Second, newMetrics(), logger.Nop())
	ctx := context.Background()

	ok, err := d.Launch(ctx, usdJpy)
	assert.Error(t, err)
	assert.False(t, ok)

	running, err := d.Running(ctx, usdJpy)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestSelfCommand(t *testing.T) {
	cmd := SelfCommand("/usr/local/bin/quickfx", "--cache-driver", "sqlite")(usdJpy)
	assert.Equal(t, []string{"/usr/local/bin/quickfx", "--cache-driver", "sqlite", "fetch", "USD", "JPY"}, cmd.Args)
}
