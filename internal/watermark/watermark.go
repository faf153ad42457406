// Package watermark holds the durable dedup state that marks which
// feed messages have already been notified. Three interchangeable
// strategies cover the feed shapes seen in production panels: a
// bounded recency set, a last-identity-plus-recency hybrid, and a
// plain high-water timestamp.
package watermark

import (
	"fmt"
	"time"

	"github.com/arsal072-sys/protonsms072/internal/model"
)

// Strategy selects the dedup state shape.
type Strategy string

// Supported strategies.
const (
	StrategyRecency   Strategy = "recency"
	StrategyLastID    Strategy = "last-id"
	StrategyHighWater Strategy = "high-water"
)

// DefaultCapacity bounds the recency set when the configuration does
// not say otherwise.
const DefaultCapacity = 100

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRecency, StrategyLastID, StrategyHighWater:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown watermark strategy %q", s)
}

// Snapshot is the serializable state of a Watermark. It is strategy
// tagged so a restored process can rebuild the exact same state.
type Snapshot struct {
	Strategy  Strategy
	Recent    []string // oldest first
	LastKey   string
	HighWater time.Time
}

// Watermark tracks notified message identities. Implementations are
// not safe for concurrent use; the engine is the single writer.
type Watermark interface {
	// Empty reports whether no identity has ever been observed.
	// An empty watermark triggers the bootstrap baseline.
	Empty() bool
	// Seen reports whether the identity was already notified.
	Seen(id model.Identity) bool
	// Observe folds a processed identity into the state.
	Observe(id model.Identity)
	// Snapshot returns a copy suitable for persistence.
	Snapshot() Snapshot
}

// New creates an empty Watermark with the given strategy. capacity
// bounds the recency set where the strategy keeps one.
func New(strategy Strategy, capacity int) Watermark {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	switch strategy {
	case StrategyLastID:
		return &lastIDMark{recent: newRecencySet(capacity)}
	case StrategyHighWater:
		return &highWaterMark{}
	default:
		return &recencyMark{recent: newRecencySet(capacity)}
	}
}

// Restore rebuilds a Watermark from a persisted snapshot.
func Restore(snap Snapshot, capacity int) Watermark {
	wm := New(snap.Strategy, capacity)
	switch m := wm.(type) {
	case *recencyMark:
		for _, key := range snap.Recent {
			m.recent.add(key)
		}
	case *lastIDMark:
		for _, key := range snap.Recent {
			m.recent.add(key)
		}
		m.lastKey = snap.LastKey
	case *highWaterMark:
		m.at = snap.HighWater
	}
	return wm
}

// recencySet is a fixed-capacity FIFO membership set. Insertion order
// doubles as eviction order; replays of a present key do not refresh
// its position.
type recencySet struct {
	capacity int
	keys     []string
	present  map[string]struct{}
}

func newRecencySet(capacity int) *recencySet {
	return &recencySet{capacity: capacity, present: make(map[string]struct{})}
}

func (r *recencySet) contains(key string) bool {
	_, ok := r.present[key]
	return ok
}

func (r *recencySet) add(key string) {
	if r.contains(key) {
		return
	}
	r.keys = append(r.keys, key)
	r.present[key] = struct{}{}
	for len(r.keys) > r.capacity {
		delete(r.present, r.keys[0])
		r.keys = r.keys[1:]
	}
}

func (r *recencySet) snapshot() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

type recencyMark struct {
	recent *recencySet
}

func (m *recencyMark) Empty() bool { return len(m.recent.keys) == 0 }

func (m *recencyMark) Seen(id model.Identity) bool { return m.recent.contains(id.Key) }

func (m *recencyMark) Observe(id model.Identity) { m.recent.add(id.Key) }
func (m *recencyMark) Snapshot() Snapshot {
	return Snapshot{Strategy: StrategyRecency, Recent: m.recent.snapshot()}
}

// lastIDMark tracks the single newest identity but keeps a recency set
// so window replays of older rows are still filtered.
type lastIDMark struct {
	lastKey string
	recent  *recencySet
}

func (m *lastIDMark) Empty() bool {
	return m.lastKey == "" && len(m.recent.keys) == 0
}

func (m *lastIDMark) Seen(id model.Identity) bool {
	return id.Key == m.lastKey || m.recent.contains(id.Key)
}

func (m *lastIDMark) Observe(id model.Identity) {
	m.recent.add(id.Key)
	m.lastKey = id.Key
}

func (m *lastIDMark) Snapshot() Snapshot {
	return Snapshot{Strategy: StrategyLastID, Recent: m.recent.snapshot(), LastKey: m.lastKey}
}

// highWaterMark is for feeds consumed in strict chronological order:
// anything at or before the frontier timestamp counts as seen.
type highWaterMark struct {
	at time.Time
}

func (m *highWaterMark) Empty() bool { return m.at.IsZero() }

func (m *highWaterMark) Seen(id model.Identity) bool {
	return !id.Timestamp.After(m.at)
}

func (m *highWaterMark) Observe(id model.Identity) {
	if id.Timestamp.After(m.at) {
		m.at = id.Timestamp
	}
}

func (m *highWaterMark) Snapshot() Snapshot {
	return Snapshot{Strategy: StrategyHighWater, HighWater: m.at}
}
