package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arsal072-sys/protonsms072/internal/model"
)

// Sampler fetches one window of raw rows and normalizes it into a
// validated sequence ordered newest first.
type Sampler struct {
	fetcher *Fetcher
	log     *slog.Logger
}

// NewSampler creates a Sampler around the given Fetcher.
func NewSampler(fetcher *Fetcher, log *slog.Logger) *Sampler {
	return &Sampler{fetcher: fetcher, log: log}
}

// Sample returns the current window's valid rows, newest first. Ties
// on timestamp keep the feed's original order (stable sort); the feed
// offers no finer sequence number. An empty window is (nil, nil);
// transport conditions surface as the Fetcher's sentinel errors.
func (s *Sampler) Sample(ctx context.Context) ([]model.FeedRow, error) {
	body, err := s.fetcher.FetchWindow(ctx)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Rows []json.RawMessage `json:"aaData"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var rows []model.FeedRow
	for _, raw := range payload.Rows {
		var cells []any
		if err := json.Unmarshal(raw, &cells); err != nil {
			// Non-array entries show up next to the summary row.
			continue
		}
		row, ok := Classify(cells)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
	s.log.Debug("sampled window", "rows", len(payload.Rows), "valid", len(rows))
	return rows, nil
}
