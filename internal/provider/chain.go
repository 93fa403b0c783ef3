package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// FetchChain tries each Fetcher in order. The first one that returns at least
// one record wins. If all fail the last error is returned; if all succeed
// with nothing, the result is empty.
type FetchChain []Fetcher

// Fetch implements Fetcher.
func (c FetchChain) Fetch(ctx context.Context, urls []string) ([]model.RawProfile, error) {
	if len(c) == 0 {
		return nil, eris.New("provider: no fetchers configured")
	}

	var lastErr error
	succeeded := false
	for i, f := range c {
		out, err := f.Fetch(ctx, urls)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("provider: fetcher failed, trying next",
				zap.Int("position", i),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		succeeded = true
		if len(out) > 0 {
			return out, nil
		}
	}
	if succeeded {
		return []model.RawProfile{}, nil
	}
	return nil, lastErr
}
