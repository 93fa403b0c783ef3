package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/jina"
)

// readerLeadLimit bounds how much rendered markdown is kept as the summary
// source.
const readerLeadLimit = 2000

// ReaderFetcher renders profile pages through the Jina reader. It sits
// between the scraper actor and the bare page fetch in the chain.
type ReaderFetcher struct {
	client jina.Client
	opts   options
}

// NewReaderFetcher creates a ReaderFetcher.
func NewReaderFetcher(client jina.Client, opts ...Option) *ReaderFetcher {
	return &ReaderFetcher{client: client, opts: buildOptions(opts)}
}

// Fetch implements Fetcher. Like PageFetcher, a failing URL is skipped.
func (f *ReaderFetcher) Fetch(ctx context.Context, urls []string) ([]model.RawProfile, error) {
	out := make([]model.RawProfile, 0, len(urls))
	var lastErr error
	for _, u := range urls {
		if err := f.opts.wait(ctx); err != nil {
			return nil, err
		}
		resp, err := f.client.Read(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("provider: reader fetch failed", zap.String("url", u), zap.Error(err))
			lastErr = err
			continue
		}
		out = append(out, readerToRaw(resp.Data, u))
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func readerToRaw(d jina.ReadData, fallbackURL string) model.RawProfile {
	url := strings.TrimSpace(d.URL)
	if url == "" {
		url = fallbackURL
	}
	raw := model.RawProfile{"url": url}
	if t := strings.TrimSpace(d.Title); t != "" {
		raw["title"] = t
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		raw["description"] = desc
	} else if body := markdownLead(d.Content); body != "" {
		raw["description"] = body
	}
	return raw
}

// markdownLead drops heading lines and returns the first prose of a
// markdown document.
func markdownLead(md string) string {
	var kept []string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	lead := strings.Join(kept, " ")
	if len(lead) > readerLeadLimit {
		lead = lead[:readerLeadLimit]
	}
	return lead
}
