package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/viewmodel"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "data", "vistral.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func sampleRecord() *viewmodel.VideoRecord {
	return &viewmodel.VideoRecord{
		ID:       "vid-42",
		Title:    "Launch Review",
		Duration: "5:23",
		Summary:  "## Highlights\n\nEngine test recap.",
		Keyframes: []viewmodel.Keyframe{
			{ID: 1, Timestamp: 12, Description: "Ignition sequence", URL: "https://cdn/kf1.jpg"},
			{ID: 2, Timestamp: 135, Description: "Stage separation", URL: "https://cdn/kf2.jpg"},
		},
		Transcript: "Liftoff confirmed. Stage one nominal.",
		Language:   language.English,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	want := sampleRecord()
	require.NoError(t, cache.Put(ctx, want))

	got, ok, err := cache.Get(ctx, "vid-42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCacheGetUnknownID(t *testing.T) {
	cache := testCache(t)

	got, ok, err := cache.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCachePutOverwrites(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	first := sampleRecord()
	require.NoError(t, cache.Put(ctx, first))

	updated := sampleRecord()
	updated.Title = "Launch Review (reprocessed)"
	updated.Keyframes = updated.Keyframes[:1]
	require.NoError(t, cache.Put(ctx, updated))

	got, ok, err := cache.Get(ctx, "vid-42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Launch Review (reprocessed)", got.Title)
	assert.Len(t, got.Keyframes, 1)
}

func TestCachePutRequiresID(t *testing.T) {
	cache := testCache(t)
	assert.Error(t, cache.Put(context.Background(), &viewmodel.VideoRecord{}))
	assert.Error(t, cache.Put(context.Background(), nil))
}

func TestCacheReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vistral.db")
	ctx := context.Background()

	cache, err := OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, sampleRecord()))
	require.NoError(t, cache.Close())

	reopened, err := OpenCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok, err := reopened.Get(ctx, "vid-42")
	require.NoError(t, err)
	assert.True(t, ok)
}

type detailsBackend struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (b *detailsBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/video/details/", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		if b.fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "upstream unavailable"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "completed",
			"video_id": "vid-42",
			"metadata": map[string]any{
				"title":    "Launch Review",
				"duration": 323,
			},
			"video_summary": map[string]string{"standard": "Engine test recap."},
		})
	})
	mux.HandleFunc("/video/history", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"videos": []map[string]any{
				{"id": "vid-42", "title": "Launch Review", "duration": 323, "processing_status": "completed"},
				{"id": "vid-43", "title": "Dry Run", "duration": "1:10", "processing_status": "processing"},
			},
			"message": "Sign in to keep your history.",
		})
	})
	return mux
}

func newTestService(t *testing.T, backend *detailsBackend, cache *Cache) *Service {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, api.NewSession(""))
	require.NoError(t, err)
	svc, err := NewService(client, cache, 10)
	require.NoError(t, err)
	return svc
}

func TestLoadDetailsCachesOnSuccess(t *testing.T) {
	backend := &detailsBackend{}
	cache := testCache(t)
	svc := newTestService(t, backend, cache)
	ctx := context.Background()

	record, source, err := svc.LoadDetails(ctx, "vid-42")
	require.NoError(t, err)
	assert.Equal(t, SourceBackend, source)
	assert.Equal(t, "Launch Review", record.Title)
	assert.Equal(t, "5:23", record.Duration)

	cached, ok, err := cache.Get(ctx, "vid-42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record, cached)
}

func TestLoadDetailsFallsBackToCache(t *testing.T) {
	backend := &detailsBackend{}
	cache := testCache(t)
	svc := newTestService(t, backend, cache)
	ctx := context.Background()

	_, _, err := svc.LoadDetails(ctx, "vid-42")
	require.NoError(t, err)

	backend.fail.Store(true)
	record, source, err := svc.LoadDetails(ctx, "vid-42")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "Launch Review", record.Title)
}

func TestLoadDetailsFailureWithoutCacheEntry(t *testing.T) {
	backend := &detailsBackend{}
	backend.fail.Store(true)
	svc := newTestService(t, backend, testCache(t))

	_, _, err := svc.LoadDetails(context.Background(), "vid-42")
	require.Error(t, err)
	assert.ErrorContains(t, err, "upstream unavailable")
}

func TestLoadDetailsNilCache(t *testing.T) {
	backend := &detailsBackend{}
	svc := newTestService(t, backend, nil)

	record, source, err := svc.LoadDetails(context.Background(), "vid-42")
	require.NoError(t, err)
	assert.Equal(t, SourceBackend, source)
	assert.Equal(t, "vid-42", record.ID)
}

func TestListNormalizesHistory(t *testing.T) {
	svc := newTestService(t, &detailsBackend{}, nil)

	items, message, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sign in to keep your history.", message)
	require.Len(t, items, 2)
	assert.Equal(t, "5:23", items[0].Duration)
	assert.Equal(t, viewmodel.StatusProcessing, items[1].Status)
	assert.False(t, items[1].Status.Viewable())
}

func TestNewServiceValidation(t *testing.T) {
	client, err := api.NewClient("http://localhost:1", api.NewSession(""))
	require.NoError(t, err)

	_, err = NewService(nil, nil, 10)
	assert.Error(t, err)
	_, err = NewService(client, nil, 0)
	assert.Error(t, err)
}
