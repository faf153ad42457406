// Package engine orchestrates one polling cycle: sample the feed,
// diff against the watermark, extract codes, emit notifications, and
// commit the advanced watermark.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/arsal072-sys/protonsms072/internal/model"
	"github.com/arsal072-sys/protonsms072/internal/otp"
	"github.com/arsal072-sys/protonsms072/internal/storage"
	"github.com/arsal072-sys/protonsms072/internal/watermark"
)

// Sampler returns the current feed window, newest first.
type Sampler interface {
	Sample(ctx context.Context) ([]model.FeedRow, error)
}

// Notifier delivers one extracted record to the downstream sink.
type Notifier interface {
	Notify(ctx context.Context, rec model.OtpRecord) error
}

// Engine runs strictly sequential dedup cycles over a single feed.
// It is the watermark's only reader and writer, so no locking is
// needed as long as RunCycle is never called concurrently.
type Engine struct {
	feed      string
	sampler   Sampler
	extractor *otp.Extractor
	notifier  Notifier
	store     storage.Storage
	wm        watermark.Watermark
	log       *slog.Logger
}

// New creates an Engine for the named feed with a ready watermark.
func New(feed string, sampler Sampler, extractor *otp.Extractor, notifier Notifier, store storage.Storage, wm watermark.Watermark, log *slog.Logger) *Engine {
	return &Engine{
		feed:      feed,
		sampler:   sampler,
		extractor: extractor,
		notifier:  notifier,
		store:     store,
		wm:        wm,
		log:       log,
	}
}

// LoadWatermark builds the engine's watermark from durable state, or
// an empty one on first run.
func LoadWatermark(ctx context.Context, store storage.Storage, feed string, strategy watermark.Strategy, capacity int) (watermark.Watermark, error) {
	snap, err := store.LoadWatermark(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	if snap == nil {
		return watermark.New(strategy, capacity), nil
	}
	return watermark.Restore(*snap, capacity), nil
}

// RunCycle performs one full cycle and returns to idle. On an empty
// watermark the whole window is absorbed as baseline with zero
// notifications, so a first start never floods the sink with history.
func (e *Engine) RunCycle(ctx context.Context) error {
	rows, err := e.sampler.Sample(ctx)
	if err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	bootstrap := e.wm.Empty()
	inCycle := make(map[string]struct{}, len(rows))
	processed := 0
	notified := 0

	// Oldest first, so emissions follow arrival order.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		id := model.NewIdentity(row)
		if _, dup := inCycle[id.Key]; dup {
			// Provider duplicate inside one window.
			continue
		}
		inCycle[id.Key] = struct{}{}
		if e.wm.Seen(id) {
			continue
		}

		if !bootstrap {
			rec := e.buildRecord(row)
			if err := e.notifier.Notify(ctx, rec); err != nil {
				// One failed emission must not block the rest of
				// the window; the watermark still advances.
				e.log.Error("emit notification",
					"feed", e.feed, "identity", id.Key, "error", err)
			} else {
				e.log.Info("otp notified",
					"feed", e.feed, "identity", id.Key, "code", rec.Code)
				notified++
			}
		}
		e.wm.Observe(id)
		processed++
	}

	if processed == 0 {
		return nil
	}
	if bootstrap {
		e.log.Info("baseline absorbed", "feed", e.feed, "rows", processed)
	}
	if err := e.commit(ctx); err != nil {
		// Already-sent notifications cannot be retracted; the next
		// cycle re-derives the same identities and may re-notify.
		e.log.Error("persist watermark", "feed", e.feed, "error", err,
			"notified", notified)
	}
	return nil
}

// commit persists the watermark before the cycle closes, retrying the
// durable write a few times before giving up.
func (e *Engine) commit(ctx context.Context) error {
	snap := e.wm.Snapshot()
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := e.store.SaveWatermark(ctx, e.feed, snap); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (e *Engine) buildRecord(row model.FeedRow) model.OtpRecord {
	service := row.Service
	if service == "" {
		service = "Unknown"
	}
	return model.OtpRecord{
		Code:      e.extractor.Extract(row.Text),
		Number:    model.CleanNumber(row.Number),
		Service:   service,
		Country:   model.CountryFromRoute(row.Route),
		Timestamp: row.Timestamp,
		Text:      row.Text,
	}
}
