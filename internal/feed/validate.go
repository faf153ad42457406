package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/arsal072-sys/protonsms072/internal/model"
)

// summaryPrefix marks the aggregate totals row the panel appends to
// every window.
const summaryPrefix = "0,0,0,"

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Classify decides whether a raw feed cell array is a real message row.
// Noise rows (summary rows, short rows, unparseable timestamps, empty
// message text) are rejected without error; they never reach the dedup
// stage. Classify is deterministic and side-effect-free.
func Classify(raw []any) (model.FeedRow, bool) {
	if len(raw) < 5 {
		return model.FeedRow{}, false
	}

	first, ok := raw[0].(string)
	if !ok || strings.HasPrefix(first, summaryPrefix) || !datePrefix.MatchString(first) {
		return model.FeedRow{}, false
	}
	ts, err := time.Parse(model.TimeLayout, first)
	if err != nil {
		return model.FeedRow{}, false
	}

	text, ok := raw[4].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return model.FeedRow{}, false
	}

	return model.FeedRow{
		Timestamp: ts,
		Route:     cellString(raw[1]),
		Number:    cellString(raw[2]),
		Service:   cellString(raw[3]),
		Text:      text,
	}, true
}

// cellString coerces an optional feed cell to a string; non-string
// cells (the panel emits numbers in aggregate rows) become empty.
func cellString(v any) string {
	s, _ := v.(string)
	return s
}
