package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
)

const pageUserAgent = "Mozilla/5.0 (compatible; WarmLeadSourcer/1.0)"

// PageFetcher reads the public Open Graph tags of profile pages. It returns
// far less than a scraper actor and serves as the fallback fetch path.
type PageFetcher struct {
	http *http.Client
	opts options
}

// NewPageFetcher creates a PageFetcher. A nil client uses a 30s timeout.
func NewPageFetcher(hc *http.Client, opts ...Option) *PageFetcher {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &PageFetcher{http: hc, opts: buildOptions(opts)}
}

// Fetch implements Fetcher. A URL that fails is skipped; the call fails only
// when no URL produced a record.
func (f *PageFetcher) Fetch(ctx context.Context, urls []string) ([]model.RawProfile, error) {
	out := make([]model.RawProfile, 0, len(urls))
	var lastErr error
	for _, u := range urls {
		if err := f.opts.wait(ctx); err != nil {
			return nil, err
		}
		doc, err := f.fetchDocument(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("provider: page fetch failed", zap.String("url", u), zap.Error(err))
			lastErr = err
			continue
		}
		out = append(out, pageToRaw(doc, u))
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (f *PageFetcher) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "page: create request")
	}
	req.Header.Set("User-Agent", pageUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, resilience.Classify("page", eris.Wrap(err, "page: fetch"))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("page", resp.StatusCode, fmt.Sprintf("GET %s", url))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "page: parse html")
	}
	return doc, nil
}

// pageToRaw maps Open Graph tags onto the keys the normalizer reads.
func pageToRaw(doc *goquery.Document, fallbackURL string) model.RawProfile {
	meta := func(property string) string {
		v, _ := doc.Find(fmt.Sprintf(`meta[property="%s"]`, property)).First().Attr("content")
		return strings.TrimSpace(v)
	}

	title := meta("og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	url := meta("og:url")
	if url == "" {
		url = fallbackURL
	}

	raw := model.RawProfile{"url": url}
	if title != "" {
		raw["title"] = title
	}
	if desc := meta("og:description"); desc != "" {
		raw["description"] = desc
	}
	return raw
}
