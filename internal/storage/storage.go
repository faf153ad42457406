// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"github.com/arsal072-sys/protonsms072/internal/watermark"
)

// Storage is the durable state store for watermark snapshots. Saving
// then loading on a fresh process must yield an equivalent snapshot,
// and a save must be atomic with respect to process crash.
type Storage interface {
	// LoadWatermark returns the persisted snapshot for a feed, or
	// nil when none exists (first run).
	LoadWatermark(ctx context.Context, feed string) (*watermark.Snapshot, error)
	SaveWatermark(ctx context.Context, feed string, snap watermark.Snapshot) error

	Close() error
}
