// Package store owns the authoritative in-memory clipboard history and
// keeps it synchronized with a possibly-slow, possibly-failing persistent
// backend. Every mutation is applied to memory first (optimistic), then
// persisted asynchronously; a failed persistence call rolls the in-memory
// change back by identifier and surfaces the error to a reporter.
//
// All in-memory state is mutated under a single mutex, so no two
// mutations ever interleave; persistence runs as independent goroutines
// that re-enter the mutex only to commit or roll back their result.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ilikebug/VeloxClip-sub001/internal/config"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
)

// Persister is the asynchronous CRUD contract over clipboard entries.
// Implementations serialize their own operations internally; cross-record
// operations may complete out of order.
type Persister interface {
	Insert(ctx context.Context, it item.Item) error
	Update(ctx context.Context, it item.Item) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	FetchAll(ctx context.Context) ([]item.Item, error)
	FetchFavorites(ctx context.Context) ([]item.Item, error)
}

// Reporter receives persistence failures for user-visible notification.
// Fire-and-forget; implementations must not panic.
type Reporter interface {
	Report(err error)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(error)

func (f ReporterFunc) Report(err error) { f(err) }

// Summarizer produces a short summary for an item's text. Treated as an
// opaque collaborator; failures are logged, never reported.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// LimitFunc returns the current history limit (maximum retained
// non-favorite items). Consulted synchronously on every insert.
type LimitFunc func() int

// Stats counts settled optimistic operations. Exposed so tests can check
// the pending → committed | rolled-back machine mechanically.
type Stats struct {
	Committed  uint64
	RolledBack uint64
}

// Store is the single source of truth for the visible item list and the
// favorites projection.
type Store struct {
	persister  Persister
	reporter   Reporter
	limit      LimitFunc
	summarizer Summarizer
	log        *zap.Logger

	mu        sync.Mutex
	items     []item.Item // newest-first insertion order
	favorites []item.Item // favorited-at desc, falling back to created-at
	revision  uint64
	subs      map[chan struct{}]struct{}
	stats     Stats

	inflight sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithReporter sets the failure sink. Defaults to logging.
func WithReporter(r Reporter) Option {
	return func(s *Store) { s.reporter = r }
}

// WithLimit sets the history-limit provider.
func WithLimit(f LimitFunc) Option {
	return func(s *Store) { s.limit = f }
}

// WithSummarizer enables best-effort summary generation for new items.
func WithSummarizer(sum Summarizer) Option {
	return func(s *Store) { s.summarizer = sum }
}

// WithLogger sets the logger used by best-effort failure paths.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates a Store over the given persister.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		limit:     func() int { return config.DefaultHistoryLimit },
		log:       zap.NewNop(),
		subs:      make(map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		log := s.log
		s.reporter = ReporterFunc(func(err error) {
			log.Error("persistence failure", zap.Error(err))
		})
	}
	return s
}

// Items returns a snapshot copy of the item list, newest first.
func (s *Store) Items() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Favorites returns a snapshot copy of the favorites projection.
func (s *Store) Favorites() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.favorites)
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (item.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := indexOf(s.items, id); idx >= 0 {
		return s.items[idx].Clone(), true
	}
	if idx := indexOf(s.favorites, id); idx >= 0 {
		return s.favorites[idx].Clone(), true
	}
	return item.Item{}, false
}

// Len returns the number of items in the main list.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Revision returns the current change counter. It increments on every
// observable mutation, including rollbacks.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Stats returns counters for settled optimistic operations.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Subscribe returns a channel that receives a (coalesced) signal after
// each observable mutation. Callers must eventually Unsubscribe.
func (s *Store) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription channel.
func (s *Store) Unsubscribe(ch chan struct{}) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// Wait blocks until all in-flight persistence tasks have settled.
// Used by one-shot CLI commands and tests; a settled store's memory and
// backend agree up to accepted best-effort inconsistencies.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// notifyLocked bumps the revision and signals subscribers.
// Caller must hold mu.
func (s *Store) notifyLocked() {
	s.revision++
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// indexOf finds an item by identifier; -1 when absent.
func indexOf(items []item.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// removeByID deletes an item by identifier, preserving order.
func removeByID(items []item.Item, id string) []item.Item {
	idx := indexOf(items, id)
	if idx < 0 {
		return items
	}
	return append(items[:idx], items[idx+1:]...)
}

// insertFavoriteSorted places an item at its ordered position in the
// favorites projection (favorited-at desc, created-at fallback).
func insertFavoriteSorted(favs []item.Item, it item.Item) []item.Item {
	key := it.FavoritedOrCreated()
	pos := len(favs)
	for i := range favs {
		if favs[i].FavoritedOrCreated() < key {
			pos = i
			break
		}
	}
	favs = append(favs, item.Item{})
	copy(favs[pos+1:], favs[pos:])
	favs[pos] = it
	return favs
}

func cloneItems(items []item.Item) []item.Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]item.Item, len(items))
	for i := range items {
		dup[i] = items[i].Clone()
	}
	return dup
}
