package routing

import (
	"sync"
	"time"

	"github.com/docmesh/docmesh/core"
)

// Direction classifies a history entry relative to the router.
type Direction string

const (
	// DirectionOutgoing is a message the router was asked to deliver.
	DirectionOutgoing Direction = "outgoing"
	// DirectionIncoming is a response returned by a handler.
	DirectionIncoming Direction = "incoming"
	// DirectionError is an error envelope the router produced itself.
	DirectionError Direction = "error"
)

// HistoryEntry is one timestamped (direction, message) pair recorded by the
// router. Entries are read-only once appended.
type HistoryEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Direction Direction     `json:"direction"`
	Message   *core.Message `json:"message"`
}

// historyRing is a bounded ring buffer of history entries. When full, the
// oldest entry is evicted on append. Safe for concurrent use.
type historyRing struct {
	mu       sync.Mutex
	entries  []HistoryEntry
	capacity int
	start    int
	size     int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &historyRing{
		entries:  make([]HistoryEntry, capacity),
		capacity: capacity,
	}
}

func (h *historyRing) append(direction Direction, msg *core.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := (h.start + h.size) % h.capacity
	h.entries[idx] = HistoryEntry{Timestamp: time.Now().UTC(), Direction: direction, Message: msg}
	if h.size < h.capacity {
		h.size++
	} else {
		h.start = (h.start + 1) % h.capacity
	}
}

func (h *historyRing) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *historyRing) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start, h.size = 0, 0
}

// snapshot returns the buffered entries oldest-first, filtered by agent
// (sender-or-recipient match) and kind, truncated to the last limit entries.
// A zero filter value means "no constraint". The buffer is not mutated.
func (h *historyRing) snapshot(f HistoryFilter) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, 0, h.size)
	for i := 0; i < h.size; i++ {
		entry := h.entries[(h.start+i)%h.capacity]
		if f.Agent != "" && entry.Message.Sender != f.Agent && entry.Message.Recipient != f.Agent {
			continue
		}
		if f.Kind != "" && entry.Message.Kind != f.Kind {
			continue
		}
		out = append(out, entry)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}
