package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/ilikebug/VeloxClip-sub001/internal/errors"
	"github.com/ilikebug/VeloxClip-sub001/internal/item"
)

// itemColumns is the column list shared by every item SELECT.
const itemColumns = `id, created_at, kind, content, data, source_app,
	tags_json, summary, sensitive, embedding, favorite, favorited_at`

// Insert stores a new item in the database.
// Inserting an already-present identifier fails with DUPLICATE_ID; callers
// are expected to check existence first, so hitting this is a bug upstream.
func Insert(ctx context.Context, db *sql.DB, it *item.Item) error {
	tagsJSON, err := encodeTags(it.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO items (
			id, created_at, kind, content, data, source_app,
			tags_json, summary, sensitive, embedding, favorite, favorited_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.ExecContext(ctx, query,
		it.ID, it.CreatedAt, string(it.Kind), toNullString(it.Content), it.Data,
		toNullString(it.SourceApp), tagsJSON, toNullString(it.Summary),
		boolToInt(it.Sensitive), it.Embedding, boolToInt(it.Favorite),
		toNullInt(it.FavoritedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewDuplicateID(it.ID)
		}
		return errors.NewInternal(err)
	}

	return nil
}

// Update replaces all mutable fields of an item by identifier.
// A missing identifier is "no rows affected", not an error.
func Update(ctx context.Context, db *sql.DB, it *item.Item) error {
	tagsJSON, err := encodeTags(it.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE items SET
			kind = ?, content = ?, data = ?, source_app = ?,
			tags_json = ?, summary = ?, sensitive = ?, embedding = ?,
			favorite = ?, favorited_at = ?
		WHERE id = ?
	`

	_, err = db.ExecContext(ctx, query,
		string(it.Kind), toNullString(it.Content), it.Data,
		toNullString(it.SourceApp), tagsJSON, toNullString(it.Summary),
		boolToInt(it.Sensitive), it.Embedding, boolToInt(it.Favorite),
		toNullInt(it.FavoritedAt), it.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// Delete removes an item by identifier. Deleting a missing id is a no-op.
func Delete(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteAll removes every item.
func DeleteAll(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// FetchAll returns all items ordered by creation time descending.
func FetchAll(ctx context.Context, db *sql.DB) ([]item.Item, error) {
	query := "SELECT " + itemColumns + " FROM items ORDER BY created_at DESC, id DESC"
	return fetchItems(ctx, db, query)
}

// FetchFavorites returns favorite items ordered by favorited time
// (falling back to creation time) descending.
func FetchFavorites(ctx context.Context, db *sql.DB) ([]item.Item, error) {
	query := "SELECT " + itemColumns + ` FROM items
		WHERE favorite = 1
		ORDER BY COALESCE(favorited_at, created_at) DESC, id DESC`
	return fetchItems(ctx, db, query)
}

// Search returns items whose content, summary, or tags contain the query,
// newest first. Used by the CLI, web UI, and MCP search surfaces.
func Search(ctx context.Context, db *sql.DB, q string, limit int) ([]item.Item, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(q) + "%"
	query := "SELECT " + itemColumns + ` FROM items
		WHERE content LIKE ? ESCAPE '\'
		   OR summary LIKE ? ESCAPE '\'
		   OR tags_json LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	return fetchItems(ctx, db, query, pattern, pattern, pattern, limit)
}

// Count returns the total number of stored items.
func Count(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// SetSetting stores a string key-value setting, replacing any prior value.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.ExecContext(ctx, query, key, value); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetSetting returns the value for a key, or NOT_FOUND if absent.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound(key)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return value, nil
}

// SettingExists reports whether a setting key is present.
func SettingExists(ctx context.Context, db *sql.DB, key string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM settings WHERE key = ? LIMIT 1", key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// fetchItems runs an item SELECT and scans all rows.
func fetchItems(ctx context.Context, db *sql.DB, query string, args ...any) ([]item.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return items, nil
}

// scanItem decodes a single items row.
func scanItem(rows *sql.Rows) (*item.Item, error) {
	var (
		it          item.Item
		kind        string
		content     sql.NullString
		sourceApp   sql.NullString
		tagsJSON    sql.NullString
		summary     sql.NullString
		sensitive   int
		favorite    int
		favoritedAt sql.NullInt64
	)

	err := rows.Scan(
		&it.ID, &it.CreatedAt, &kind, &content, &it.Data, &sourceApp,
		&tagsJSON, &summary, &sensitive, &it.Embedding, &favorite, &favoritedAt,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	it.Kind = item.Kind(kind)
	it.Content = fromNullString(content)
	it.SourceApp = fromNullString(sourceApp)
	it.Summary = fromNullString(summary)
	it.Sensitive = sensitive != 0
	it.Favorite = favorite != 0
	if favoritedAt.Valid {
		ts := favoritedAt.Int64
		it.FavoritedAt = &ts
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &it.Tags); err != nil {
			return nil, errors.NewDecodeFailed(it.ID, err)
		}
	}

	return &it, nil
}

// encodeTags converts a tag list to its stored JSON form.
func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// escapeLike escapes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
