package scorer

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// Scored is a profile with the score it received.
type Scored struct {
	Profile model.CanonicalProfile
	Score   int
}

// Gate scores profiles and filters them by threshold.
type Gate struct {
	scorer      Scorer
	threshold   int
	concurrency int
	limiter     *rate.Limiter
}

// Option configures a Gate.
type Option func(*Gate)

// WithThreshold sets the minimum passing score (inclusive).
func WithThreshold(n int) Option {
	return func(g *Gate) {
		if n >= MinScore && n <= MaxScore {
			g.threshold = n
		}
	}
}

// WithConcurrency sets how many profiles are scored at once.
func WithConcurrency(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithRateLimit caps scorer calls per second.
func WithRateLimit(rps float64) Option {
	return func(g *Gate) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewGate creates a Gate around s.
func NewGate(s Scorer, opts ...Option) *Gate {
	g := &Gate{scorer: s, threshold: DefaultThreshold, concurrency: 1}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Threshold returns the minimum passing score.
func (g *Gate) Threshold() int {
	return g.threshold
}

// Filter scores every profile and returns those at or above the threshold,
// in input order. A profile whose scoring fails is dropped; the rest of the
// batch is unaffected. Profiles not yet scored when ctx ends are dropped.
func (g *Gate) Filter(ctx context.Context, profiles []model.CanonicalProfile, keywords string) []Scored {
	results := make([]*Scored, len(profiles))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i, p := range profiles {
		eg.Go(func() error {
			if s, ok := g.scoreOne(ctx, i, p, keywords); ok {
				results[i] = &s
			}
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]Scored, 0, len(profiles))
	for _, r := range results {
		if r != nil && r.Score >= g.threshold {
			out = append(out, *r)
		}
	}

	zap.L().Info("scorer: filtered profiles",
		zap.Int("input", len(profiles)),
		zap.Int("passed", len(out)),
		zap.Int("threshold", g.threshold),
	)
	return out
}

func (g *Gate) scoreOne(ctx context.Context, i int, p model.CanonicalProfile, keywords string) (s Scored, ok bool) {
	log := zap.L().With(zap.Int("index", i), zap.String("name", p.Name))
	defer func() {
		if r := recover(); r != nil {
			log.Warn("scorer: scoring panicked, skipping profile", zap.Any("panic", r))
			s, ok = Scored{}, false
		}
	}()

	if ctx.Err() != nil {
		return Scored{}, false
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Scored{}, false
		}
	}

	raw, err := g.scorer.Score(ctx, p, BuildCriteria(keywords, p))
	if err != nil {
		log.Warn("scorer: scoring failed, skipping profile", zap.Error(err))
		return Scored{}, false
	}

	score, ok := ParseScore(raw)
	if !ok {
		log.Warn("scorer: no score in response, using neutral score",
			zap.String("response", raw),
			zap.Int("score", score),
		)
	}
	return Scored{Profile: p, Score: score}, true
}
