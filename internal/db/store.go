package db

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ilikebug/VeloxClip-sub001/internal/item"
)

// SettingHistoryLimit is the settings key that overrides the configured
// history limit when present.
const SettingHistoryLimit = "history_limit"

// Store adapts a *sql.DB to the asynchronous persistence contract consumed
// by the in-memory clipboard store. All methods delegate to the package
// query functions; the sql.DB connection pool serializes access internally.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for surfaces that query directly
// (search, settings pages).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Insert(ctx context.Context, it item.Item) error {
	return Insert(ctx, s.db, &it)
}

func (s *Store) Update(ctx context.Context, it item.Item) error {
	return Update(ctx, s.db, &it)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return Delete(ctx, s.db, id)
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return DeleteAll(ctx, s.db)
}

func (s *Store) FetchAll(ctx context.Context) ([]item.Item, error) {
	return FetchAll(ctx, s.db)
}

func (s *Store) FetchFavorites(ctx context.Context) ([]item.Item, error) {
	return FetchFavorites(ctx, s.db)
}

// HistoryLimit returns the persisted history limit when one is set and
// parses cleanly, falling back to the supplied default otherwise. Read
// synchronously; the store consults it on every insert.
func (s *Store) HistoryLimit(fallback int) int {
	value, err := GetSetting(context.Background(), s.db, SettingHistoryLimit)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// SetHistoryLimit persists the history limit setting.
func (s *Store) SetHistoryLimit(ctx context.Context, limit int) error {
	return SetSetting(ctx, s.db, SettingHistoryLimit, strconv.Itoa(limit))
}
