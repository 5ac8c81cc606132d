package contentstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/modelfold/pkg/contentstore"
)

func TestMemoryStoreDeterministicCID(t *testing.T) {
	t.Parallel()
	store := contentstore.NewMemoryStore()
	ctx := context.Background()

	first, err := store.Put(ctx, []byte("gradient payload"))
	require.NoError(t, err)
	second, err := store.Put(ctx, []byte("gradient payload"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := store.Put(ctx, []byte("different payload"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	data, err := store.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("gradient payload"), data)

	ok, err := store.Has(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreMissingBlob(t *testing.T) {
	t.Parallel()
	store := contentstore.NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "baguqeeraexample")
	assert.ErrorIs(t, err, contentstore.ErrNotFound)

	ok, err := store.Has(ctx, "baguqeeraexample")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	t.Parallel()

	blobs := make(map[string][]byte)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/blobs":
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			id, err := contentstore.Sum(data)
			require.NoError(t, err)
			blobs[id] = data
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(id))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/blobs/"):
			id := strings.TrimPrefix(r.URL.Path, "/blobs/")
			data, ok := blobs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)

				return
			}
			_, _ = w.Write(data)
		case r.Method == http.MethodHead && strings.HasPrefix(r.URL.Path, "/blobs/"):
			id := strings.TrimPrefix(r.URL.Path, "/blobs/")
			if _, ok := blobs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)

				return
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	store := contentstore.NewHTTPStore(srv.URL, 0)
	ctx := context.Background()

	id, err := store.Put(ctx, []byte("weights"))
	require.NoError(t, err)

	data, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)

	ok, err := store.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, contentstore.ErrNotFound)
}

func TestHTTPStoreRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	store := contentstore.NewHTTPStore(srv.URL, 0)

	data, err := store.Get(context.Background(), "somecid")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}
