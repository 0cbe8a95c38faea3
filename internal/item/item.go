package item

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind classifies the pasteboard payload of an item.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
	KindColor Kind = "color"
	KindRTF   Kind = "rtf"
	KindOther Kind = "other"
)

// TagOCR marks items whose content was replaced by recognized text.
const TagOCR = "OCR"

// Item represents a single captured clipboard entry.
type Item struct {
	// ID is a ULID that uniquely identifies this item
	ID string

	// CreatedAt is the Unix timestamp when the entry was captured
	CreatedAt int64

	// Kind is the payload type tag
	Kind Kind

	// Content is the textual payload (nullable)
	Content *string

	// Data is the binary payload (nullable)
	Data []byte

	// SourceApp is the bundle/application identifier the entry came from (nullable)
	SourceApp *string

	// Tags is an ordered list of user tags (stored as JSON in DB)
	Tags []string

	// Summary is an optional generated summary of the content
	Summary *string

	// Sensitive marks entries that look like secrets or passwords
	Sensitive bool

	// Embedding is an opaque vector blob, decoded on demand as float64s
	Embedding []byte

	// Favorite marks pinned entries exempt from history-limit eviction
	Favorite bool

	// FavoritedAt is set iff Favorite is true
	FavoritedAt *int64
}

// NewID generates a new ULID.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Clone returns a deep copy of the item. Rollback snapshots depend on the
// copy sharing no mutable state with the original.
func (it Item) Clone() Item {
	dup := it
	if it.Tags != nil {
		dup.Tags = append([]string(nil), it.Tags...)
	}
	if it.Data != nil {
		dup.Data = append([]byte(nil), it.Data...)
	}
	if it.Embedding != nil {
		dup.Embedding = append([]byte(nil), it.Embedding...)
	}
	if it.Content != nil {
		c := *it.Content
		dup.Content = &c
	}
	if it.SourceApp != nil {
		s := *it.SourceApp
		dup.SourceApp = &s
	}
	if it.Summary != nil {
		s := *it.Summary
		dup.Summary = &s
	}
	if it.FavoritedAt != nil {
		ts := *it.FavoritedAt
		dup.FavoritedAt = &ts
	}
	return dup
}

// WellFormed reports whether the entry carries any payload at all.
// The UI assumes at least one of Content/Data is present.
func (it Item) WellFormed() bool {
	return it.Content != nil || len(it.Data) > 0
}

// SetFavorite flips the favorite flag, keeping FavoritedAt consistent:
// it is non-nil iff the flag is true.
func (it *Item) SetFavorite(fav bool, now int64) {
	it.Favorite = fav
	if fav {
		it.FavoritedAt = &now
	} else {
		it.FavoritedAt = nil
	}
}

// FavoritedOrCreated returns the timestamp favorites are ordered by:
// FavoritedAt when set, CreatedAt otherwise.
func (it Item) FavoritedOrCreated() int64 {
	if it.FavoritedAt != nil {
		return *it.FavoritedAt
	}
	return it.CreatedAt
}

// HasTag reports whether the tag list contains the given tag.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Text returns the textual content, or "" when absent.
func (it Item) Text() string {
	if it.Content == nil {
		return ""
	}
	return *it.Content
}

// DecodeEmbedding decodes the embedding blob as a sequence of
// little-endian float64s. Returns nil for an empty blob.
func (it Item) DecodeEmbedding() []float64 {
	if len(it.Embedding) < 8 {
		return nil
	}
	n := len(it.Embedding) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(it.Embedding[i*8:])
		vec[i] = math.Float64frombits(bits)
	}
	return vec
}

// EncodeEmbedding encodes a vector into the blob format DecodeEmbedding reads.
func EncodeEmbedding(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}
