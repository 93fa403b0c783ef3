package provider

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/serper"
)

var serpTitleSeparator = regexp.MustCompile(`\s+[-|–—]\s+`)

// SerperSearcher finds LinkedIn profiles through Google results.
type SerperSearcher struct {
	client serper.Client
	gl     string
	opts   options
}

// NewSerperSearcher creates a SerperSearcher. gl is the Google country code
// used to localize results; empty means global.
func NewSerperSearcher(client serper.Client, gl string, opts ...Option) *SerperSearcher {
	return &SerperSearcher{client: client, gl: strings.ToLower(gl), opts: buildOptions(opts)}
}

// Search implements Searcher.
func (s *SerperSearcher) Search(ctx context.Context, req SearchRequest) ([]model.RawProfile, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.client.Search(ctx, serper.SearchRequest{
		Query:   linkedInQuery(req),
		Country: s.gl,
		Page:    req.Page,
		Num:     req.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.RawProfile, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		if !strings.Contains(r.Link, "linkedin.com/in/") {
			continue
		}
		out = append(out, organicToRaw(r))
	}
	zap.L().Info("provider: serper search complete",
		zap.String("query", req.Query),
		zap.Int("organic", len(resp.Organic)),
		zap.Int("profiles", len(out)),
	)
	return out, nil
}

// linkedInQuery restricts the search to public profiles and requires every
// keyword.
func linkedInQuery(req SearchRequest) string {
	keywords := req.Keywords
	if keywords == "" {
		keywords = req.Query
	}
	words := strings.Fields(keywords)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + strings.Trim(w, `"`) + `"`
	}

	q := "site:linkedin.com/in/ " + strings.Join(quoted, " AND ")
	if req.Country != "" && req.Keywords != "" {
		q += " " + req.Country
	}
	return q
}

// organicToRaw maps a result titled "Name - Role - Company | LinkedIn" onto
// the keys the normalizer understands.
func organicToRaw(r serper.OrganicResult) model.RawProfile {
	title := strings.TrimSuffix(strings.TrimSpace(r.Title), "| LinkedIn")
	parts := serpTitleSeparator.Split(strings.TrimSpace(title), -1)

	raw := model.RawProfile{
		"title":   r.Title,
		"link":    r.Link,
		"snippet": r.Snippet,
	}
	if len(parts) > 0 && parts[0] != "" {
		raw["name"] = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		exp := map[string]any{"title": strings.TrimSpace(parts[1])}
		raw["headline"] = exp["title"]
		if len(parts) > 2 {
			exp["companyName"] = strings.TrimSpace(parts[2])
		}
		raw["experience"] = []any{exp}
	}
	return raw
}
