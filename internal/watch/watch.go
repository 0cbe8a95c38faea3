// Package watch adapts an external clipboard source into a stream of
// fully formed items. The OS pasteboard read itself stays outside the
// core; callers supply a ReadFunc and receive deduplicated change
// events.
package watch

import (
	"context"
	"crypto/sha256"
	"time"

	"go.uber.org/zap"

	"github.com/ilikebug/VeloxClip-sub001/internal/item"
)

const DefaultInterval = 2 * time.Second

// Notifier delivers new clipboard items as they are observed. The
// channel closes when the notifier stops.
type Notifier interface {
	Items() <-chan item.Item
	Stop()
}

// ReadFunc reads the current clipboard payload. A nil kind result with
// empty content means nothing is on the clipboard.
type ReadFunc func(ctx context.Context) (kind item.Kind, content string, data []byte, err error)

// Poller polls a ReadFunc at a fixed cadence and emits an item whenever
// the payload hash changes. Consecutive identical payloads are dropped
// so re-copying the same text does not flood the store.
type Poller struct {
	read     ReadFunc
	interval time.Duration
	log      *zap.Logger

	items  chan item.Item
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller builds a poller; interval <= 0 uses DefaultInterval and a
// nil logger is replaced with a no-op one.
func NewPoller(read ReadFunc, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		read:     read,
		interval: interval,
		log:      log,
		items:    make(chan item.Item, 8),
		done:     make(chan struct{}),
	}
}

// Start launches the background poll loop. It returns immediately.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Items returns the change stream.
func (p *Poller) Items() <-chan item.Item {
	return p.items
}

// Stop cancels the loop and waits for the channel to close.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.items)
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last [sha256.Size]byte
	seeded := false
	for {
		if it, hash, ok := p.observe(ctx); ok {
			if !seeded || hash != last {
				last = hash
				seeded = true
				select {
				case p.items <- it:
				case <-ctx.Done():
					return
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// observe reads the clipboard once and builds a candidate item. Read
// failures are logged and skipped; the next tick retries.
func (p *Poller) observe(ctx context.Context) (item.Item, [sha256.Size]byte, bool) {
	kind, content, data, err := p.read(ctx)
	if err != nil {
		p.log.Warn("clipboard read failed", zap.Error(err))
		return item.Item{}, [sha256.Size]byte{}, false
	}
	if content == "" && len(data) == 0 {
		return item.Item{}, [sha256.Size]byte{}, false
	}

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(content))
	h.Write(data)
	var hash [sha256.Size]byte
	copy(hash[:], h.Sum(nil))

	id, err := item.NewID()
	if err != nil {
		p.log.Warn("id generation failed", zap.Error(err))
		return item.Item{}, [sha256.Size]byte{}, false
	}
	it := item.Item{
		ID:        id,
		CreatedAt: time.Now().Unix(),
		Kind:      kind,
	}
	if content != "" {
		it.Content = &content
	}
	if len(data) > 0 {
		it.Data = data
	}
	return it, hash, true
}
