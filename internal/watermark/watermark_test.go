package watermark

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arsal072-sys/protonsms072/internal/model"
)

func identityAt(t *testing.T, ts string, key string) model.Identity {
	t.Helper()
	parsed, err := time.Parse(model.TimeLayout, ts)
	if err != nil {
		t.Fatalf("parse timestamp %q: %v", ts, err)
	}
	return model.Identity{Timestamp: parsed, Key: key}
}

func TestParseStrategy(t *testing.T) {
	for _, valid := range []string{"recency", "last-id", "high-water"} {
		if _, err := ParseStrategy(valid); err != nil {
			t.Errorf("ParseStrategy(%q): unexpected error %v", valid, err)
		}
	}
	if _, err := ParseStrategy("lru"); err == nil {
		t.Error("ParseStrategy(\"lru\"): expected error, got nil")
	}
}

func TestRecencySeenAndEmpty(t *testing.T) {
	wm := New(StrategyRecency, 10)
	if !wm.Empty() {
		t.Fatal("new watermark should be empty")
	}

	id := identityAt(t, "2025-01-01 10:00:00", "a")
	if wm.Seen(id) {
		t.Error("unobserved identity reported as seen")
	}

	wm.Observe(id)
	if wm.Empty() {
		t.Error("watermark still empty after observe")
	}
	if !wm.Seen(id) {
		t.Error("observed identity not reported as seen")
	}
}

func TestRecencyEviction(t *testing.T) {
	wm := New(StrategyRecency, 3)

	var ids []model.Identity
	for i := 0; i < 5; i++ {
		id := identityAt(t, "2025-01-01 10:00:00", fmt.Sprintf("key-%d", i))
		ids = append(ids, id)
		wm.Observe(id)
	}

	// Capacity 3: keys 0 and 1 evicted, 2..4 retained.
	for i, id := range ids {
		want := i >= 2
		if got := wm.Seen(id); got != want {
			t.Errorf("Seen(%s) = %v, want %v", id.Key, got, want)
		}
	}
}

func TestRecencyDuplicateObserveDoesNotEvict(t *testing.T) {
	wm := New(StrategyRecency, 2)
	a := identityAt(t, "2025-01-01 10:00:00", "a")
	b := identityAt(t, "2025-01-01 10:01:00", "b")

	wm.Observe(a)
	wm.Observe(b)
	wm.Observe(b) // replay, must not push a out
	if !wm.Seen(a) {
		t.Error("replayed observe evicted an unrelated identity")
	}
}

func TestLastIDFiltersReplays(t *testing.T) {
	wm := New(StrategyLastID, 10)
	a := identityAt(t, "2025-01-01 10:00:00", "a")
	b := identityAt(t, "2025-01-01 10:01:00", "b")

	wm.Observe(a)
	wm.Observe(b)

	// b is the last identity, but a replay of a is still filtered.
	if !wm.Seen(b) {
		t.Error("last identity not seen")
	}
	if !wm.Seen(a) {
		t.Error("older identity replay not filtered")
	}
	if wm.Seen(identityAt(t, "2025-01-01 10:02:00", "c")) {
		t.Error("fresh identity reported as seen")
	}
}

func TestHighWater(t *testing.T) {
	wm := New(StrategyHighWater, 0)
	if !wm.Empty() {
		t.Fatal("new high-water mark should be empty")
	}

	mid := identityAt(t, "2025-01-01 10:05:00", "mid")
	wm.Observe(mid)

	tests := []struct {
		name string
		id   model.Identity
		want bool
	}{
		{"older is seen", identityAt(t, "2025-01-01 10:00:00", "old"), true},
		{"equal is seen", identityAt(t, "2025-01-01 10:05:00", "same"), true},
		{"newer is new", identityAt(t, "2025-01-01 10:06:00", "new"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wm.Seen(tt.id); got != tt.want {
				t.Errorf("Seen = %v, want %v", got, tt.want)
			}
		})
	}

	// Observing an older identity must not move the frontier back.
	wm.Observe(identityAt(t, "2025-01-01 10:00:00", "old"))
	if wm.Seen(identityAt(t, "2025-01-01 10:06:00", "new")) {
		t.Error("frontier moved backwards")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
	}{
		{"recency", StrategyRecency},
		{"last-id", StrategyLastID},
		{"high-water", StrategyHighWater},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wm := New(tt.strategy, 10)
			wm.Observe(identityAt(t, "2025-01-01 10:00:00", "a"))
			wm.Observe(identityAt(t, "2025-01-01 10:01:00", "b"))

			restored := Restore(wm.Snapshot(), 10)
			if diff := cmp.Diff(wm.Snapshot(), restored.Snapshot()); diff != "" {
				t.Errorf("snapshot mismatch after restore (-want +got):\n%s", diff)
			}
			if restored.Empty() {
				t.Error("restored watermark reports empty")
			}
			if !restored.Seen(identityAt(t, "2025-01-01 10:01:00", "b")) {
				t.Error("restored watermark lost an identity")
			}
		})
	}
}

func TestRestoreHonorsCapacity(t *testing.T) {
	snap := Snapshot{
		Strategy: StrategyRecency,
		Recent:   []string{"a", "b", "c", "d"},
	}
	wm := Restore(snap, 2)
	got := wm.Snapshot().Recent
	want := []string{"c", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("restored set mismatch (-want +got):\n%s", diff)
	}
}
