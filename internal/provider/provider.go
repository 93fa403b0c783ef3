// Package provider implements the search and fetch collaborators that return
// raw lead records from external services.
package provider

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// SearchRequest is a keyword search for lead profiles.
type SearchRequest struct {
	// Query is the full search text: keywords followed by the country when
	// one was given.
	Query    string
	Keywords string
	Country  string
	Page     int
	Limit    int
}

// NewSearchRequest builds a SearchRequest from the caller's parameters.
func NewSearchRequest(keywords, country string, page, limit int) SearchRequest {
	keywords = strings.TrimSpace(keywords)
	country = strings.TrimSpace(country)
	query := keywords
	if country != "" {
		query = keywords + " " + country
	}
	if page <= 0 {
		page = 1
	}
	return SearchRequest{Query: query, Keywords: keywords, Country: country, Page: page, Limit: limit}
}

// Searcher finds raw profiles matching a keyword query.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]model.RawProfile, error)
}

// Fetcher retrieves raw profiles for known profile URLs.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) ([]model.RawProfile, error)
}

// Option configures a provider.
type Option func(*options)

type options struct {
	limiter *rate.Limiter
}

// WithRateLimit caps calls to the provider per second.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// wait blocks until the limiter allows one call, or ctx is cancelled.
func (o options) wait(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	return o.limiter.Wait(ctx)
}

func toRaw(items []map[string]any) []model.RawProfile {
	out := make([]model.RawProfile, 0, len(items))
	for _, it := range items {
		out = append(out, model.RawProfile(it))
	}
	return out
}
