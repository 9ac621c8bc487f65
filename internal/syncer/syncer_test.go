package syncer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agribasket/internal/api"
	"agribasket/internal/cart"
	"agribasket/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	path string
	body map[string]any
}

type mirrorBackend struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func newMirrorBackend(t *testing.T) *mirrorBackend {
	t.Helper()
	b := &mirrorBackend{status: http.StatusOK}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		b.requests = append(b.requests, recordedRequest{path: r.URL.Path, body: body})
		status := b.status
		b.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *mirrorBackend) recorded() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

func (b *mirrorBackend) failWith(status int) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

func TestBestEffort_MirrorsEachOperation(t *testing.T) {
	backend := newMirrorBackend(t)
	s := NewBestEffort(api.NewClient(backend.srv.URL, nil))
	variant := int64(3)

	s.Add(7, &variant, 2)
	s.SetQuantity(7, &variant, 5)
	s.Remove(7, &variant)
	s.Replace(nil)
	s.Flush()

	reqs := backend.recorded()
	require.Len(t, reqs, 4)

	paths := make(map[string]int)
	for _, r := range reqs {
		paths[r.path]++
	}
	assert.Equal(t, map[string]int{
		"/carts/add_item/":     1,
		"/carts/set_quantity/": 1,
		"/carts/remove_item/":  1,
		"/carts/sync/":         1,
	}, paths)

	assert.Equal(t, uint64(4), s.Stats().Attempted.Load())
	assert.Equal(t, uint64(4), s.Stats().Delivered.Load())
	assert.Zero(t, s.Stats().Failed.Load())
}

func TestBestEffort_ReplaceCarriesLinesAndMode(t *testing.T) {
	backend := newMirrorBackend(t)
	s := NewBestEffort(api.NewClient(backend.srv.URL, nil))

	s.Replace([]cart.Line{{ID: 7, Weight: "1KG", Quantity: 2}})
	s.Flush()

	reqs := backend.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/carts/sync/", reqs[0].path)
	assert.Equal(t, "replace", reqs[0].body["mode"])

	lines := reqs[0].body["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, float64(7), line["product_id"])
	assert.Equal(t, "1KG", line["weight"])
}

func TestBestEffort_SwallowsServerErrors(t *testing.T) {
	backend := newMirrorBackend(t)
	backend.failWith(http.StatusInternalServerError)
	s := NewBestEffort(api.NewClient(backend.srv.URL, nil))

	assert.NotPanics(t, func() {
		s.Add(7, nil, 1)
		s.Flush()
	})

	assert.Equal(t, uint64(1), s.Stats().Attempted.Load())
	assert.Equal(t, uint64(1), s.Stats().Failed.Load())
	assert.Zero(t, s.Stats().Delivered.Load())
}

func TestBestEffort_SwallowsUnreachableBackend(t *testing.T) {
	// a closed server is as unreachable as a dead network
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s := NewBestEffort(api.NewClient(srv.URL, nil))

	assert.NotPanics(t, func() {
		s.Add(7, nil, 1)
		s.Flush()
	})
	assert.Equal(t, uint64(1), s.Stats().Failed.Load())
}

func TestBestEffort_NeverBlocksTheMutation(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer slow.Close()

	s := NewBestEffort(api.NewClient(slow.URL, nil))

	start := time.Now()
	s.Add(7, nil, 1)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 100*time.Millisecond, "mirror call must not block the caller")
	s.Flush()
}

func TestBestEffort_DrivesTheCartStore(t *testing.T) {
	backend := newMirrorBackend(t)
	s := NewBestEffort(api.NewClient(backend.srv.URL, nil))

	store := cart.NewStore(storage.NewMemory(), s)
	defer store.Close()

	store.Add(cart.Line{ID: 7, Weight: "1KG", Quantity: 2})
	store.SetQuantity(7, "1KG", 0, nil)
	store.Clear()
	s.Flush()

	reqs := backend.recorded()
	require.Len(t, reqs, 3)

	// goroutines may land in any order; quantity 0 must mirror as a
	// remove, never as set_quantity
	paths := make(map[string]int)
	for _, r := range reqs {
		paths[r.path]++
	}
	assert.Equal(t, map[string]int{
		"/carts/add_item/":    1,
		"/carts/remove_item/": 1,
		"/carts/sync/":        1,
	}, paths)
}
