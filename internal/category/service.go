package category

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/veloria/storefront/internal/httpx"
)

// DefaultStaleness is how long a fetched snapshot is served without
// triggering a background refresh.
const DefaultStaleness = 5 * time.Minute

const categoriesPath = "/api/categories"

// Service is the shared category cache. Concurrent first reads collapse
// into one fetch; reads within the staleness window are served from memory;
// stale reads are served immediately while a background refresh runs.
// Successful refreshes fan out to subscribers.
type Service struct {
	client         *httpx.Client
	staleness      time.Duration
	refreshTimeout time.Duration
	logger         zerolog.Logger

	sf singleflight.Group

	mu          sync.RWMutex
	index       *Index
	fetchedAt   time.Time
	subscribers map[uint64]chan *Index
	nextSubID   uint64
	closed      bool

	now func() time.Time
}

// NewService creates a category service fetching from the given client.
// A non-positive staleness falls back to DefaultStaleness.
func NewService(client *httpx.Client, staleness time.Duration) *Service {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &Service{
		client:         client,
		staleness:      staleness,
		refreshTimeout: 30 * time.Second,
		logger:         log.With().Str("component", "category_cache").Logger(),
		subscribers:    make(map[uint64]chan *Index),
		now:            time.Now,
	}
}

type categoriesResponse struct {
	Categories []Node `json:"categories"`
}

// Get returns the current category index. The first call blocks on the
// fetch and surfaces its error; once initialized, Get never fails. A stale
// snapshot is returned immediately while a refresh runs in the background.
func (s *Service) Get(ctx context.Context) (*Index, error) {
	s.mu.RLock()
	idx, fetchedAt := s.index, s.fetchedAt
	s.mu.RUnlock()

	if idx != nil {
		if s.now().Sub(fetchedAt) <= s.staleness {
			cacheEvents.WithLabelValues("hit").Inc()
			return idx, nil
		}
		cacheEvents.WithLabelValues("stale").Inc()
		go s.refresh()
		return idx, nil
	}

	cacheEvents.WithLabelValues("miss").Inc()
	v, err, _ := s.sf.Do("fetch", func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Initialized reports whether a snapshot has ever been loaded.
func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// Subscribe registers for snapshot updates. Each successful refresh
// delivers the new index on the returned channel; a slow consumer only
// ever sees the latest snapshot. The cancel function unregisters and
// closes the channel.
func (s *Service) Subscribe() (<-chan *Index, func()) {
	ch := make(chan *Index, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Invalidate drops the cached snapshot. The next Get blocks on a fresh
// fetch instead of serving stale data.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.fetchedAt = time.Time{}
}

// Close unregisters all subscribers. Further refreshes notify no one.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.closed = true
}

// fetch performs the network call and stores the rebuilt index.
func (s *Service) fetch(ctx context.Context) (*Index, error) {
	var resp categoriesResponse
	if err := s.client.GetJSON(ctx, categoriesPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	idx, err := BuildIndex(resp.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to index categories: %w", err)
	}

	s.store(idx)
	s.logger.Debug().Int("categories", idx.Total()).Msg("Category snapshot loaded")
	return idx, nil
}

// refresh re-fetches in the background. Failures are swallowed so the
// stale snapshot keeps serving; singleflight collapses concurrent
// refreshes.
func (s *Service) refresh() {
	_, err, _ := s.sf.Do("fetch", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		return s.fetch(ctx)
	})
	if err != nil {
		cacheEvents.WithLabelValues("refresh_error").Inc()
		s.logger.Warn().Err(err).Msg("Background category refresh failed, keeping stale snapshot")
	}
}

// store swaps in the new snapshot and fans it out to subscribers. A full
// subscriber channel is drained first so consumers always observe the
// latest index.
func (s *Service) store(idx *Index) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = idx
	s.fetchedAt = s.now()

	if s.closed {
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- idx:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- idx
		}
	}
}
