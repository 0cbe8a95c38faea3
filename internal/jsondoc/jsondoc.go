// Package jsondoc validates clipboard text as a JSON document and
// produces the preview's three views: a canonical pretty-print with
// sorted keys, a minified single line, and an expandable tree. Results
// are memoized by raw input so re-opening the same payload never
// re-parses.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize caps the per-formatter result cache.
const DefaultCacheSize = 128

// Result holds every view of one validation attempt. Invalid input
// yields Valid=false with a non-empty Err and the raw text untouched;
// no partial structure is ever exposed.
type Result struct {
	Valid    bool
	Raw      string
	Pretty   string
	Minified string
	Err      string

	value any
}

// Validate parses raw as a strict JSON document. Numbers keep their
// source form via json.Number; trailing non-whitespace after the first
// value is rejected.
func Validate(raw string) Result {
	res := Result{Raw: raw}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		res.Err = parseError(err)
		return res
	}
	if err := expectEOF(dec); err != nil {
		res.Err = err.Error()
		return res
	}

	var pretty, min bytes.Buffer
	if err := writeValue(&pretty, value, 0); err != nil {
		res.Err = err.Error()
		return res
	}
	if err := writeMinified(&min, value); err != nil {
		res.Err = err.Error()
		return res
	}

	res.Valid = true
	res.Pretty = pretty.String()
	res.Minified = min.String()
	res.value = value
	return res
}

func parseError(err error) string {
	if err == io.EOF {
		return "empty input"
	}
	return err.Error()
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after document")
	}
	return nil
}

const indentUnit = "  "

// writeValue renders the canonical pretty form: object keys sorted,
// two-space indent, no trailing newline. Applying Validate to its own
// output reproduces it byte for byte.
func writeValue(b *bytes.Buffer, value any, depth int) error {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			b.WriteString("{}")
			return nil
		}
		keys := sortedKeys(v)
		b.WriteString("{\n")
		for i, k := range keys {
			b.WriteString(strings.Repeat(indentUnit, depth+1))
			writeString(b, k)
			b.WriteString(": ")
			if err := writeValue(b, v[k], depth+1); err != nil {
				return err
			}
			if i < len(keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteByte('}')
	case []any:
		if len(v) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, elem := range v {
			b.WriteString(strings.Repeat(indentUnit, depth+1))
			if err := writeValue(b, elem, depth+1); err != nil {
				return err
			}
			if i < len(v)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteByte(']')
	default:
		return writeLeaf(b, v)
	}
	return nil
}

func writeMinified(b *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case map[string]any:
		b.WriteByte('{')
		for i, k := range sortedKeys(v) {
			if i > 0 {
				b.WriteByte(',')
			}
			writeString(b, k)
			b.WriteByte(':')
			if err := writeMinified(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeMinified(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	default:
		return writeLeaf(b, v)
	}
	return nil
}

func writeLeaf(b *bytes.Buffer, v any) error {
	switch leaf := v.(type) {
	case string:
		writeString(b, leaf)
	case json.Number:
		b.WriteString(leaf.String())
	case bool:
		if leaf {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case nil:
		b.WriteString("null")
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func writeString(b *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s)
	b.Write(encoded)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Formatter memoizes Validate results by exact raw input, capacity
// capped. Safe for concurrent use.
type Formatter struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Result]
}

// NewFormatter returns a formatter with the given cache capacity;
// capacity <= 0 uses DefaultCacheSize.
func NewFormatter(capacity int) *Formatter {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, err := lru.New[string, Result](capacity)
	if err != nil {
		panic(err)
	}
	return &Formatter{cache: cache}
}

// Validate returns the cached result for raw, parsing on miss.
func (f *Formatter) Validate(raw string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.cache.Get(raw); ok {
		return res
	}
	res := Validate(raw)
	f.cache.Add(raw, res)
	return res
}

// CacheLen reports the number of cached documents.
func (f *Formatter) CacheLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache.Len()
}
