package category

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloria/storefront/internal/httpx"
)

const categoriesJSON = `{"categories":[
	{"id":"c1","name":"Jewelry","handle":"jewelry","rank":1},
	{"id":"c2","name":"Rings","handle":"rings","parentId":"c1","rank":1,"productCount":12},
	{"id":"c3","name":"Necklaces","handle":"necklaces","parentId":"c1","rank":2,"productCount":8}
]}`

// testServer serves the fixture, counting calls. fail flips it to 500s and
// gate, when set, blocks each response until the channel closes.
type testServer struct {
	*httptest.Server
	calls atomic.Int32
	fail  atomic.Bool
	gate  chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if ts.gate != nil {
			<-ts.gate
		}
		if ts.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(categoriesJSON))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestService(t *testing.T, ts *testServer) *Service {
	t.Helper()
	cfg := httpx.DefaultConfig(ts.URL)
	cfg.Retries = 0
	return NewService(httpx.NewClient(cfg), DefaultStaleness)
}

func TestServiceFirstFetch(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	assert.False(t, svc.Initialized())

	idx, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Total())
	assert.True(t, svc.Initialized())

	rings, ok := idx.ByHandle("rings")
	require.True(t, ok)
	assert.Equal(t, []string{"jewelry"}, rings.AncestorHandles)
}

func TestServiceDeduplicatesConcurrentFetch(t *testing.T) {
	ts := newTestServer(t)
	ts.gate = make(chan struct{})
	svc := newTestService(t, ts)

	var wg sync.WaitGroup
	results := make([]*Index, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, err := svc.Get(context.Background())
			assert.NoError(t, err)
			results[i] = idx
		}(i)
	}

	// Let both callers reach the fetch before releasing the response.
	time.Sleep(50 * time.Millisecond)
	close(ts.gate)
	wg.Wait()

	assert.Equal(t, int32(1), ts.calls.Load(), "concurrent first reads share one fetch")
	assert.Same(t, results[0], results[1])
}

func TestServiceServesFromCacheWithinWindow(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	_, err := svc.Get(context.Background())
	require.NoError(t, err)
	_, err = svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), ts.calls.Load())
}

func TestServiceStaleWhileRevalidate(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	first, err := svc.Get(context.Background())
	require.NoError(t, err)

	// Age the snapshot past the staleness window.
	svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	stale, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, stale, "stale snapshot served without blocking")

	assert.Eventually(t, func() bool {
		return ts.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond, "background refresh re-fetches")
}

func TestServiceFirstLoadFailureSurfaces(t *testing.T) {
	ts := newTestServer(t)
	ts.fail.Store(true)
	svc := newTestService(t, ts)

	_, err := svc.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, svc.Initialized())

	// Recovery on a later call.
	ts.fail.Store(false)
	idx, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Total())
}

func TestServiceBackgroundFailureKeepsStaleData(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	first, err := svc.Get(context.Background())
	require.NoError(t, err)

	ts.fail.Store(true)
	svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	idx, err := svc.Get(context.Background())
	require.NoError(t, err, "background refresh failure must not surface")
	assert.Same(t, first, idx)

	assert.Eventually(t, func() bool {
		return ts.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
	assert.True(t, svc.Initialized())
}

func TestServiceSubscribersReceiveRefresh(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	updates, cancel := svc.Subscribe()
	defer cancel()

	_, err := svc.Get(context.Background())
	require.NoError(t, err)

	select {
	case idx := <-updates:
		assert.Equal(t, 3, idx.Total())
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified of snapshot load")
	}
}

func TestServiceSubscribeCancelClosesChannel(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	updates, cancel := svc.Subscribe()
	cancel()

	_, ok := <-updates
	assert.False(t, ok)

	// A second cancel is a no-op.
	cancel()
}

func TestServiceInvalidateForcesRefetch(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	_, err := svc.Get(context.Background())
	require.NoError(t, err)

	svc.Invalidate()
	assert.False(t, svc.Initialized())

	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), ts.calls.Load())
}

func TestServiceCloseStopsFanOut(t *testing.T) {
	ts := newTestServer(t)
	svc := newTestService(t, ts)

	updates, _ := svc.Subscribe()
	svc.Close()

	_, ok := <-updates
	assert.False(t, ok, "close drains subscribers")

	// Fetches still work after close, they just notify no one.
	idx, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Total())
}
