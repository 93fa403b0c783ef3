package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/provider"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/store"
)

type fakeClassifier struct {
	platform model.Platform
	err      error
	calls    atomic.Int32
}

func (f *fakeClassifier) Classify(context.Context, string) (model.Platform, error) {
	f.calls.Add(1)
	return f.platform, f.err
}

type fakeSearcher struct {
	results []model.RawProfile
	err     error
	calls   atomic.Int32

	mu   sync.Mutex
	last provider.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req provider.SearchRequest) ([]model.RawProfile, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	return f.results, f.err
}

type fakeFetcher struct {
	results []model.RawProfile
	err     error
	calls   atomic.Int32
	urls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, urls []string) ([]model.RawProfile, error) {
	f.calls.Add(1)
	f.urls = urls
	return f.results, f.err
}

// fakeScorer answers by profile name; unknown names get "Score: 7".
type fakeScorer struct {
	replies map[string]string
	errs    map[string]error
	panics  map[string]bool
	calls   atomic.Int32
}

func (f *fakeScorer) Score(_ context.Context, p model.CanonicalProfile, _ string) (string, error) {
	f.calls.Add(1)
	if f.panics[p.Name] {
		panic("scorer reply handling failed for " + p.Name)
	}
	if err := f.errs[p.Name]; err != nil {
		return "", err
	}
	if r, ok := f.replies[p.Name]; ok {
		return r, nil
	}
	return "Score: 7", nil
}

func newTestCache(t *testing.T) (*store.Cache, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return store.NewCache(st, 24*time.Hour), st
}

func rawProfile(name, headline, company string) model.RawProfile {
	return model.RawProfile{
		"fullName": name,
		"headline": headline,
		"experience": []any{
			map[string]any{"title": headline, "companyName": company},
		},
		"location": map[string]any{
			"parsed": map[string]any{"country": "Kenya", "city": "Nairobi"},
		},
	}
}

type testDeps struct {
	classifier *fakeClassifier
	searcher   *fakeSearcher
	fetcher    *fakeFetcher
	scorer     *fakeScorer
	cache      *store.Cache
	store      *store.SQLiteStore
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	cache, st := newTestCache(t)
	return &testDeps{
		classifier: &fakeClassifier{platform: model.PlatformLinkedIn},
		searcher:   &fakeSearcher{},
		fetcher:    &fakeFetcher{},
		scorer:     &fakeScorer{},
		cache:      cache,
		store:      st,
	}
}

func (d *testDeps) pipeline(opts ...Option) *Pipeline {
	return New(Deps{
		Classifier: d.classifier,
		Searcher:   d.searcher,
		Fetcher:    d.fetcher,
		Scorer:     d.scorer,
		Cache:      d.cache,
	}, opts...)
}
