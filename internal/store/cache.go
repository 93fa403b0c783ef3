package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// DefaultTTL is how long a cached search stays valid.
const DefaultTTL = 24 * time.Hour

// Lookup is the outcome of a cache read. A hit may carry zero profiles:
// that records a query that found nothing, which is distinct from a miss.
type Lookup struct {
	Hit      bool
	Profiles []model.EnrichedProfile
	CachedAt time.Time
}

// Cache is the best-effort search cache used by the pipeline. Backend
// failures never surface: reads degrade to a miss and writes are dropped.
type Cache struct {
	store   Store
	ttl     time.Duration
	nowFunc func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.nowFunc = now }
}

// NewCache wraps a Store. A non-positive ttl uses DefaultTTL.
func NewCache(s Store, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{store: s, ttl: ttl, nowFunc: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get looks up a keyword query. Expired rows are reported as a miss and left
// in place.
func (c *Cache) Get(ctx context.Context, keywords, country string, page int) Lookup {
	key := Fingerprint(keywords, country, page)
	log := zap.L().With(zap.String("fingerprint", key))

	rec, err := c.store.GetSearch(ctx, key)
	if err != nil {
		log.Warn("store: cache read failed, treating as miss", zap.Error(err))
		return Lookup{}
	}
	if rec == nil {
		log.Debug("store: cache miss")
		return Lookup{}
	}

	if age := c.nowFunc().Sub(rec.Timestamp); age >= c.ttl {
		log.Info("store: cache entry expired", zap.Duration("age", age))
		return Lookup{}
	}

	profiles := make([]model.EnrichedProfile, 0)
	if err := json.Unmarshal(rec.Results, &profiles); err != nil {
		log.Warn("store: cached payload unreadable, treating as miss", zap.Error(err))
		return Lookup{}
	}
	if profiles == nil {
		profiles = make([]model.EnrichedProfile, 0)
	}

	log.Info("store: cache hit", zap.Int("profiles", len(profiles)))
	return Lookup{Hit: true, Profiles: profiles, CachedAt: rec.Timestamp}
}

// Put stores the full result list for a keyword query, replacing any
// previous entry. Failures are logged and dropped.
func (c *Cache) Put(ctx context.Context, keywords, country string, page int, profiles []model.EnrichedProfile) {
	key := Fingerprint(keywords, country, page)
	log := zap.L().With(zap.String("fingerprint", key))

	if profiles == nil {
		profiles = []model.EnrichedProfile{}
	}
	payload, err := json.Marshal(profiles)
	if err != nil {
		log.Warn("store: marshal cache payload failed", zap.Error(err))
		return
	}

	err = c.store.PutSearch(ctx, SearchRecord{
		ID:        key,
		Keywords:  strings.TrimSpace(keywords),
		Country:   strings.TrimSpace(country),
		Page:      page,
		Results:   payload,
		Timestamp: c.nowFunc(),
	})
	if err != nil {
		log.Warn("store: cache write failed", zap.Error(err))
		return
	}
	log.Info("store: cached search", zap.Int("profiles", len(profiles)))
}

// Prune deletes entries older than the TTL. Expiry on read does not depend on it.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	return c.store.DeleteSearchesBefore(ctx, c.nowFunc().Add(-c.ttl))
}

// List returns the cached search index, newest first.
func (c *Cache) List(ctx context.Context, filter SearchFilter) ([]model.CachedSearch, error) {
	return c.store.ListSearches(ctx, filter)
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
