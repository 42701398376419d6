// Package history lists previously processed videos and loads their
// details, with a local SQLite cache as the offline fallback.
package history

import (
	"context"
	"fmt"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/viewmodel"
	"github.com/vistral/vistral/pkg/log"
)

// DetailSource tells the UI whether a record came over the wire or from
// the local cache.
type DetailSource string

const (
	SourceBackend DetailSource = "backend"
	SourceCache   DetailSource = "cache"
)

// Service fetches history and video details from the backend, keeping the
// cache fresh and serving from it when the backend fails.
type Service struct {
	client *api.Client
	cache  *Cache
	limit  int
}

// NewService builds a history service. The cache may be nil, in which case
// every load goes to the backend and failures surface directly.
func NewService(client *api.Client, cache *Cache, limit int) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("history limit must be positive, got %d", limit)
	}
	return &Service{client: client, cache: cache, limit: limit}, nil
}

// List returns the user's processed videos, newest first, plus any message
// the backend attached (anonymous users get a sign-in hint).
func (s *Service) List(ctx context.Context) ([]viewmodel.HistoryItem, string, error) {
	resp, err := s.client.VideoHistory(ctx, s.limit)
	if err != nil {
		return nil, "", fmt.Errorf("fetch history: %w", err)
	}
	return viewmodel.NormalizeHistory(resp.Videos), resp.Message, nil
}

// LoadDetails fetches and normalizes full details for a video. On success
// the record is cached; on a network or server failure a cached copy is
// served instead when one exists.
func (s *Service) LoadDetails(ctx context.Context, videoID string) (*viewmodel.VideoRecord, DetailSource, error) {
	resp, err := s.client.VideoDetails(ctx, videoID)
	if err != nil {
		if s.cache != nil {
			cached, ok, cacheErr := s.cache.Get(ctx, videoID)
			if cacheErr != nil {
				log.Warn("cache lookup failed", "video_id", videoID, "error", cacheErr)
			} else if ok {
				log.Info("serving video details from cache", "video_id", videoID, "error", err)
				return cached, SourceCache, nil
			}
		}
		return nil, SourceBackend, fmt.Errorf("load video %s: %w", videoID, err)
	}

	record := viewmodel.NormalizeRecord(resp)
	if s.cache != nil {
		if err := s.cache.Put(ctx, record); err != nil {
			log.Warn("cache store failed", "video_id", videoID, "error", err)
		}
	}
	return record, SourceBackend, nil
}
