// Package pipeline orchestrates a lead sourcing run: input validation,
// platform resolution, cache lookup, search, normalization, scoring and the
// cache write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/normalize"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/provider"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/scorer"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/store"
)

// Service names used for upstream error reporting and circuit breakers.
const (
	ServiceClassifier = "classifier"
	ServiceSearch     = "search"
	ServiceFetch      = "fetch"
	ServiceScorer     = "scorer"
)

// Classifier resolves the platform a seed link belongs to.
type Classifier interface {
	Classify(ctx context.Context, link string) (model.Platform, error)
}

// Deps are the collaborators a Pipeline is built from.
type Deps struct {
	Classifier Classifier
	Searcher   provider.Searcher
	Fetcher    provider.Fetcher
	Scorer     scorer.Scorer
	Cache      *store.Cache
	// Guard bounds every upstream call. Nil only classifies errors.
	Guard *resilience.Guard
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGateOptions configures the scoring gate.
func WithGateOptions(opts ...scorer.Option) Option {
	return func(p *Pipeline) { p.gateOpts = append(p.gateOpts, opts...) }
}

// WithSearchLimit sets the number of results requested per search page.
func WithSearchLimit(n int) Option {
	return func(p *Pipeline) { p.searchLimit = n }
}

// WithTransitionHook registers fn to observe state changes of every run.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(p *Pipeline) { p.onTransition = fn }
}

// Pipeline runs lead sourcing requests. It is safe for concurrent use; runs
// share nothing but the cache.
type Pipeline struct {
	classifier   Classifier
	searcher     provider.Searcher
	fetcher      provider.Fetcher
	gate         *scorer.Gate
	cache        *store.Cache
	guard        *resilience.Guard
	searchLimit  int
	gateOpts     []scorer.Option
	onTransition TransitionFunc
}

// New creates a Pipeline. Scorer calls are routed through the guard.
func New(deps Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: deps.Classifier,
		searcher:   deps.Searcher,
		fetcher:    deps.Fetcher,
		cache:      deps.Cache,
		guard:      deps.Guard,
	}
	for _, o := range opts {
		o(p)
	}
	p.gate = scorer.NewGate(&guardedScorer{scorer: deps.Scorer, guard: deps.Guard}, p.gateOpts...)
	return p
}

// Run executes one request and returns the enriched profiles that passed
// the scoring gate, in search order. Errors are *ValidationError,
// *UnsupportedFeatureError, *resilience.UpstreamError or *InternalError,
// except that cancellation of ctx is returned as is.
func (p *Pipeline) Run(ctx context.Context, req Request) (out []model.EnrichedProfile, err error) {
	r := &run{
		p:     p,
		state: StateStart,
		log: zap.L().With(
			zap.String("keywords", req.Keywords),
			zap.String("country", req.Country),
			zap.Int("page", req.Page),
			zap.String("link", req.Link),
		),
	}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("pipeline: panic: %v", rec)
		}
		if err == nil {
			r.log.Info("pipeline: run complete",
				zap.Int("profiles", len(out)),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return
		}
		r.transition(StateError)
		err = r.boundary(ctx, err)
	}()

	return r.execute(ctx, req)
}

// run carries the state of a single Run call.
type run struct {
	p     *Pipeline
	state State
	log   *zap.Logger
}

func (r *run) transition(to State) {
	from := r.state
	r.state = to
	r.log.Debug("pipeline: transition", zap.String("from", string(from)), zap.String("to", string(to)))
	if r.p.onTransition != nil {
		r.p.onTransition(from, to)
	}
}

// boundary maps err onto the caller-facing taxonomy.
func (r *run) boundary(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		r.log.Info("pipeline: run cancelled", zap.Error(err))
		return err
	}
	if isTyped(err) {
		r.log.Warn("pipeline: run failed", zap.Error(err))
		return err
	}
	r.log.Error("pipeline: unexpected failure", zap.Error(err))
	return &InternalError{Err: err}
}

func (r *run) execute(ctx context.Context, req Request) ([]model.EnrichedProfile, error) {
	req, err := validate(req)
	if err != nil {
		return nil, err
	}
	r.transition(StateInputValidated)

	if req.Link != "" {
		return r.linkBranch(ctx, req)
	}
	return r.keywordBranch(ctx, req)
}

func (r *run) linkBranch(ctx context.Context, req Request) ([]model.EnrichedProfile, error) {
	platform, err := resilience.Call(ctx, r.p.guard, ServiceClassifier, func(ctx context.Context) (model.Platform, error) {
		return r.p.classifier.Classify(ctx, req.Link)
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("pipeline: platform resolved", zap.String("platform", string(platform)))

	switch {
	case platform == model.PlatformUnknown:
		return nil, validationErrorf("The provided link does not belong to a supported platform")
	case !platform.Implemented():
		return nil, &UnsupportedFeatureError{Feature: fmt.Sprintf("Lead sourcing for %s", platform)}
	case !isProfileLink(req.Link):
		return nil, &UnsupportedFeatureError{Feature: "Lead sourcing from LinkedIn company pages and posts"}
	}
	r.transition(StatePlatformResolved)

	raws, err := resilience.Call(ctx, r.p.guard, ServiceFetch, func(ctx context.Context) ([]model.RawProfile, error) {
		return r.p.fetcher.Fetch(ctx, []string{req.Link})
	})
	if err != nil {
		return nil, err
	}
	r.transition(StateFetched)

	out, err := r.enrich(ctx, raws, req.Keywords)
	if err != nil {
		return nil, err
	}
	r.transition(StatePresented)
	r.transition(StateDone)
	return out, nil
}

func (r *run) keywordBranch(ctx context.Context, req Request) ([]model.EnrichedProfile, error) {
	// Keyword search only targets LinkedIn.
	r.transition(StatePlatformResolved)

	if r.p.cache != nil {
		if hit := r.p.cache.Get(ctx, req.Keywords, req.Country, req.Page); hit.Hit {
			r.log.Info("pipeline: cache hit",
				zap.Int("profiles", len(hit.Profiles)),
				zap.Time("cached_at", hit.CachedAt),
			)
			r.transition(StateCacheHit)
			r.transition(StateDone)
			return hit.Profiles, nil
		}
	}
	r.log.Info("pipeline: cache miss")
	r.transition(StateCacheMiss)

	sr := provider.NewSearchRequest(req.Keywords, req.Country, req.Page, r.p.searchLimit)
	raws, err := resilience.Call(ctx, r.p.guard, ServiceSearch, func(ctx context.Context) ([]model.RawProfile, error) {
		return r.p.searcher.Search(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("pipeline: search complete", zap.String("query", sr.Query), zap.Int("results", len(raws)))
	r.transition(StateFetched)

	out, err := r.enrich(ctx, raws, req.Keywords)
	if err != nil {
		return nil, err
	}
	r.transition(StatePresented)

	// The write happens only once the whole list is assembled.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if r.p.cache != nil {
		r.p.cache.Put(ctx, req.Keywords, req.Country, req.Page, out)
		r.transition(StateCached)
	}
	r.transition(StateDone)
	return out, nil
}

// enrich normalizes raws, scores them and attaches a generated email to
// every profile that passed.
func (r *run) enrich(ctx context.Context, raws []model.RawProfile, keywords string) ([]model.EnrichedProfile, error) {
	profiles := normalize.NormalizeBatch(raws)
	r.transition(StateNormalized)

	scored := r.p.gate.Filter(ctx, profiles, keywords)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	r.transition(StateScored)

	out := make([]model.EnrichedProfile, 0, len(scored))
	for _, s := range scored {
		out = append(out, model.EnrichedProfile{
			CanonicalProfile: s.Profile,
			Email:            normalize.GenerateEmail(s.Profile),
			Score:            s.Score,
		})
	}
	return out, nil
}

// guardedScorer routes scorer calls through the upstream guard.
type guardedScorer struct {
	scorer scorer.Scorer
	guard  *resilience.Guard
}

func (g *guardedScorer) Score(ctx context.Context, p model.CanonicalProfile, criteria string) (string, error) {
	return resilience.Call(ctx, g.guard, ServiceScorer, func(ctx context.Context) (string, error) {
		return g.scorer.Score(ctx, p, criteria)
	})
}
