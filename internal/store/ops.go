package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ilikebug/VeloxClip-sub001/internal/item"
)

// Persistence tasks deliberately use a background context: once started
// they always run to completion and their result is still applied (or its
// failure handled) even if the caller has since moved on.

// Add inserts a new entry at the head of the list. A duplicate identifier
// is a no-op: no memory change, no persistence call. The history limit is
// enforced immediately in memory; evicted items are deleted from the
// backend best-effort.
func (s *Store) Add(it item.Item) {
	s.mu.Lock()

	if indexOf(s.items, it.ID) >= 0 || indexOf(s.favorites, it.ID) >= 0 {
		s.mu.Unlock()
		return
	}

	it = it.Clone()
	s.items = append([]item.Item{it}, s.items...)
	if it.Favorite {
		s.favorites = insertFavoriteSorted(s.favorites, it.Clone())
	}

	evicted := s.evictExcessLocked()
	// Removal by identifier, not position: other operations may have
	// shifted indexes by the time the insert settles.
	op := newPendingOp(func() {
		s.items = removeByID(s.items, it.ID)
		s.favorites = removeByID(s.favorites, it.ID)
	})
	s.notifyLocked()
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := s.persister.Insert(context.Background(), it)

		s.mu.Lock()
		if err != nil {
			op.rollback()
			s.stats.RolledBack++
			s.notifyLocked()
			s.mu.Unlock()
			s.reporter.Report(err)
			return
		}
		op.commit()
		s.stats.Committed++
		s.mu.Unlock()

		s.maybeSummarize(it)
	}()

	for _, id := range evicted {
		id := id
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			// Best-effort: a failed eviction delete leaves a ghost row in
			// the backend only, never in memory.
			if err := s.persister.Delete(context.Background(), id); err != nil {
				s.log.Warn("eviction delete failed", zap.String("id", id), zap.Error(err))
			}
		}()
	}
}

// evictExcessLocked removes the oldest non-favorite items beyond the
// history limit, scanning from the tail. Returns the evicted identifiers.
// Caller must hold mu.
func (s *Store) evictExcessLocked() []string {
	limit := s.limit()
	if limit <= 0 {
		return nil
	}

	nonFav := 0
	for i := range s.items {
		if !s.items[i].Favorite {
			nonFav++
		}
	}
	excess := nonFav - limit
	if excess <= 0 {
		return nil
	}

	evicted := make([]string, 0, excess)
	for i := len(s.items) - 1; i >= 0 && len(evicted) < excess; i-- {
		if !s.items[i].Favorite {
			evicted = append(evicted, s.items[i].ID)
		}
	}
	for _, id := range evicted {
		s.items = removeByID(s.items, id)
	}
	return evicted
}

// UpdateContent replaces an item's content and marks it with the OCR tag.
// No-op if the identifier is not present.
func (s *Store) UpdateContent(id, content string) {
	s.applyUpdate(id, func(it *item.Item) {
		it.Content = &content
		if !it.HasTag(item.TagOCR) {
			it.Tags = append(it.Tags, item.TagOCR)
		}
	}, false)
}

// UpdateTags replaces an item's tag list. The favorites projection's copy
// is kept synchronized when the item is currently a favorite.
func (s *Store) UpdateTags(id string, tags []string) {
	dup := append([]string(nil), tags...)
	s.applyUpdate(id, func(it *item.Item) {
		it.Tags = dup
	}, true)
}

// applyUpdate performs the shared optimistic-update/rollback pattern:
// snapshot, mutate in place by index, persist async, restore the snapshot
// by identifier on failure.
func (s *Store) applyUpdate(id string, mutate func(*item.Item), syncFavorites bool) {
	s.mu.Lock()

	idx := indexOf(s.items, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	snapshot := s.items[idx].Clone()
	updated := snapshot.Clone()
	mutate(&updated)
	s.items[idx] = updated

	var favSnapshot *item.Item
	if syncFavorites {
		if fidx := indexOf(s.favorites, id); fidx >= 0 {
			fs := s.favorites[fidx].Clone()
			favSnapshot = &fs
			s.favorites[fidx] = updated.Clone()
		}
	}

	op := newPendingOp(func() {
		// Look the item up again: its index may have moved.
		if i := indexOf(s.items, id); i >= 0 {
			s.items[i] = snapshot
		}
		if favSnapshot != nil {
			if i := indexOf(s.favorites, id); i >= 0 {
				s.favorites[i] = *favSnapshot
			}
		}
	})
	s.notifyLocked()
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := s.persister.Update(context.Background(), updated)

		s.mu.Lock()
		if err != nil {
			op.rollback()
			s.stats.RolledBack++
			s.notifyLocked()
			s.mu.Unlock()
			s.reporter.Report(err)
			return
		}
		op.commit()
		s.stats.Committed++
		s.mu.Unlock()
	}()
}

// DeleteAt removes the items at the given positions. The persistent store
// is updated first, best-effort per item — one failed delete does not
// block the others — and memory is cleaned up afterwards by identifier.
func (s *Store) DeleteAt(positions []int) {
	s.mu.Lock()
	ids := make([]string, 0, len(positions))
	for _, pos := range positions {
		if pos >= 0 && pos < len(s.items) {
			ids = append(ids, s.items[pos].ID)
		}
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for _, id := range ids {
			if err := s.persister.Delete(context.Background(), id); err != nil {
				s.log.Warn("delete failed", zap.String("id", id), zap.Error(err))
			}
		}

		s.mu.Lock()
		for _, id := range ids {
			s.items = removeByID(s.items, id)
			s.favorites = removeByID(s.favorites, id)
		}
		s.notifyLocked()
		s.mu.Unlock()
	}()
}

// Clear deletes the entire history. The backend delete runs first; memory
// is cleared only when it succeeds, otherwise it is left untouched and
// the failure is reported.
func (s *Store) Clear() {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.persister.DeleteAll(context.Background()); err != nil {
			s.reporter.Report(err)
			return
		}

		s.mu.Lock()
		s.items = nil
		s.favorites = nil
		s.notifyLocked()
		s.mu.Unlock()
	}()
}

// ToggleFavorite flips the favorite flag and timestamp optimistically in
// both the main list and the favorites projection. On persistence
// failure the pre-toggle value is restored — not flipped again, which
// would race with a concurrent toggle.
func (s *Store) ToggleFavorite(id string) {
	s.mu.Lock()

	idx := indexOf(s.items, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	prev := s.items[idx].Clone()
	updated := prev.Clone()
	updated.SetFavorite(!prev.Favorite, time.Now().Unix())
	s.items[idx] = updated

	if updated.Favorite {
		// A fresh favorite carries the newest timestamp, so head insert
		// and sorted insert coincide.
		s.favorites = insertFavoriteSorted(removeByID(s.favorites, id), updated.Clone())
	} else {
		s.favorites = removeByID(s.favorites, id)
	}

	op := newPendingOp(func() {
		if i := indexOf(s.items, id); i >= 0 {
			s.items[i] = prev
		}
		s.favorites = removeByID(s.favorites, id)
		if prev.Favorite {
			s.favorites = insertFavoriteSorted(s.favorites, prev.Clone())
		}
	})
	s.notifyLocked()
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := s.persister.Update(context.Background(), updated)

		s.mu.Lock()
		if err != nil {
			op.rollback()
			s.stats.RolledBack++
			s.notifyLocked()
			s.mu.Unlock()
			s.reporter.Report(err)
			return
		}
		op.commit()
		s.stats.Committed++
		s.mu.Unlock()
	}()
}

// Load replaces the in-memory list wholesale from the persistent store.
// On failure the list is reset to empty and the error reported.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.persister.FetchAll(ctx)

	s.mu.Lock()
	if err != nil {
		s.items = nil
		s.notifyLocked()
		s.mu.Unlock()
		s.reporter.Report(err)
		return err
	}
	s.items = items
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// LoadFavorites replaces the favorites projection wholesale.
// On failure the projection is reset to empty and the error reported.
func (s *Store) LoadFavorites(ctx context.Context) error {
	favs, err := s.persister.FetchFavorites(ctx)

	s.mu.Lock()
	if err != nil {
		s.favorites = nil
		s.notifyLocked()
		s.mu.Unlock()
		s.reporter.Report(err)
		return err
	}
	s.favorites = favs
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// maybeSummarize fills in a missing summary after a successful insert.
// Best-effort end to end: summarizer and persistence failures are logged,
// never reported, and nothing is rolled back.
func (s *Store) maybeSummarize(it item.Item) {
	if s.summarizer == nil || it.Summary != nil || it.Content == nil {
		return
	}

	summary, err := s.summarizer.Summarize(context.Background(), *it.Content)
	if err != nil {
		s.log.Debug("summarize failed", zap.String("id", it.ID), zap.Error(err))
		return
	}
	if summary == "" {
		return
	}

	s.mu.Lock()
	idx := indexOf(s.items, it.ID)
	if idx < 0 {
		// Evicted or deleted while summarizing.
		s.mu.Unlock()
		return
	}
	updated := s.items[idx].Clone()
	updated.Summary = &summary
	s.items[idx] = updated
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.persister.Update(context.Background(), updated); err != nil {
		s.log.Warn("summary persist failed", zap.String("id", it.ID), zap.Error(err))
	}
}
