// Package model defines the domain types used across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used by the SMS panel feed.
const TimeLayout = "2006-01-02 15:04:05"

// FeedRow is one validated record from the panel's message log.
type FeedRow struct {
	Timestamp time.Time
	Route     string
	Number    string
	Service   string
	Text      string
}

// Identity is the dedup key derived from a FeedRow. Two rows with an
// equal Key are the same message regardless of window position.
type Identity struct {
	Timestamp time.Time
	Key       string
}

// NewIdentity derives the dedup key for a row: timestamp, recipient
// number, and a short fingerprint of the message text. Hashing the
// normalized text keeps the key stable under transport whitespace
// differences while still separating distinct messages that share a
// timestamp and number.
func NewIdentity(row FeedRow) Identity {
	h := sha256.Sum256([]byte(normalizeText(row.Text)))
	return Identity{
		Timestamp: row.Timestamp,
		Key: fmt.Sprintf("%s|%s|%x",
			row.Timestamp.Format(TimeLayout), row.Number, h[:6]),
	}
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// OtpRecord is the structured result of extraction, handed to the
// notifier and discarded after delivery.
type OtpRecord struct {
	Code      string
	Number    string
	Service   string
	Country   string
	Timestamp time.Time
	Text      string
}
