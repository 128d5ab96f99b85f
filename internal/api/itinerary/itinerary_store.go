package itinerary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

var ErrMissingSession = errors.New("session_id is required")

// Store keeps itineraries saved from chat, grouped by session. Contents live
// in process memory and are lost on restart.
type Store interface {
	Save(ctx context.Context, sessionID, title, content string, places []map[string]any) (types.SavedItinerary, error)
	List(ctx context.Context, sessionID string) []types.SavedItinerary
}

var _ Store = (*CacheStore)(nil)

type CacheStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

// NewCacheStore returns a Store whose sessions expire after ttl of
// inactivity. A ttl <= 0 keeps them until restart.
func NewCacheStore(ttl time.Duration) *CacheStore {
	cleanup := ttl * 2
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &CacheStore{
		cache: cache.New(ttl, cleanup),
		now:   time.Now,
	}
}

func (s *CacheStore) Save(_ context.Context, sessionID, title, content string, places []map[string]any) (types.SavedItinerary, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return types.SavedItinerary{}, ErrMissingSession
	}
	if places == nil {
		places = []map[string]any{}
	}
	saved := types.SavedItinerary{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Places:    places,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(sessionID)
	s.cache.SetDefault(sessionID, append(list, saved))
	return saved, nil
}

func (s *CacheStore) List(_ context.Context, sessionID string) []types.SavedItinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(strings.TrimSpace(sessionID))
	out := make([]types.SavedItinerary, len(list))
	copy(out, list)
	return out
}

func (s *CacheStore) load(sessionID string) []types.SavedItinerary {
	if v, ok := s.cache.Get(sessionID); ok {
		return v.([]types.SavedItinerary)
	}
	return nil
}
