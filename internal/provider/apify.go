package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/apify"
)

// Default Apify actors for LinkedIn profile search and profile details.
const (
	DefaultSearchActor  = "harvestapi~linkedin-profile-search"
	DefaultProfileActor = "harvestapi~linkedin-profile-scraper"
)

// ApifySearcher runs a LinkedIn profile search actor.
type ApifySearcher struct {
	client   apify.Client
	actor    string
	maxItems int
	opts     options
}

// NewApifySearcher creates an ApifySearcher. maxItems applies when a request
// carries no limit.
func NewApifySearcher(client apify.Client, actor string, maxItems int, opts ...Option) *ApifySearcher {
	if actor == "" {
		actor = DefaultSearchActor
	}
	if maxItems <= 0 {
		maxItems = 10
	}
	return &ApifySearcher{client: client, actor: actor, maxItems: maxItems, opts: buildOptions(opts)}
}

// Search implements Searcher.
func (s *ApifySearcher) Search(ctx context.Context, req SearchRequest) ([]model.RawProfile, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.maxItems
	}
	input := map[string]any{
		"searchQuery":        req.Query,
		"startPage":          req.Page,
		"maxItems":           limit,
		"profileScraperMode": "Full",
	}

	items, err := s.client.RunSync(ctx, s.actor, input)
	if err != nil {
		return nil, err
	}
	zap.L().Info("provider: apify search complete",
		zap.String("actor", s.actor),
		zap.String("query", req.Query),
		zap.Int("page", req.Page),
		zap.Int("items", len(items)),
	)
	return toRaw(items), nil
}

// ApifyFetcher runs a LinkedIn profile details actor for known URLs.
type ApifyFetcher struct {
	client apify.Client
	actor  string
	opts   options
}

// NewApifyFetcher creates an ApifyFetcher.
func NewApifyFetcher(client apify.Client, actor string, opts ...Option) *ApifyFetcher {
	if actor == "" {
		actor = DefaultProfileActor
	}
	return &ApifyFetcher{client: client, actor: actor, opts: buildOptions(opts)}
}

// Fetch implements Fetcher.
func (f *ApifyFetcher) Fetch(ctx context.Context, urls []string) ([]model.RawProfile, error) {
	if len(urls) == 0 {
		return []model.RawProfile{}, nil
	}
	if err := f.opts.wait(ctx); err != nil {
		return nil, err
	}

	items, err := f.client.RunSync(ctx, f.actor, map[string]any{"profileUrls": urls})
	if err != nil {
		return nil, err
	}
	zap.L().Info("provider: apify fetch complete",
		zap.String("actor", f.actor),
		zap.Int("urls", len(urls)),
		zap.Int("items", len(items)),
	)
	return toRaw(items), nil
}
