// Package store persists search results keyed by a query fingerprint.
package store

import (
	"context"
	"crypto/md5" //nolint:gosec // fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// SearchRecord is one row of the searches table.
type SearchRecord struct {
	ID        string
	Keywords  string
	Country   string
	Page      int
	Results   json.RawMessage
	Timestamp time.Time
}

// SearchFilter narrows a cached search listing.
type SearchFilter struct {
	Keywords string    `json:"keywords,omitempty"`
	Country  string    `json:"country,omitempty"`
	Since    time.Time `json:"since,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// Store is a durable backend for the search cache.
type Store interface {
	// GetSearch returns the row for id, or nil if there is none.
	GetSearch(ctx context.Context, id string) (*SearchRecord, error)
	// PutSearch inserts or fully replaces the row for rec.ID.
	PutSearch(ctx context.Context, rec SearchRecord) error
	ListSearches(ctx context.Context, filter SearchFilter) ([]model.CachedSearch, error)
	// DeleteSearchesBefore removes rows written before cutoff.
	DeleteSearchesBefore(ctx context.Context, cutoff time.Time) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Fingerprint derives the cache key for a keyword query. Keywords and
// country are trimmed and lower-cased so equivalent queries collide.
func Fingerprint(keywords, country string, page int) string {
	raw := normalizeKey(keywords) + "|" + normalizeKey(country) + "|" + strconv.Itoa(page)
	sum := md5.Sum([]byte(raw)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
