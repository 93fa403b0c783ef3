package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/export"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/llm"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/pipeline"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/provider"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/scorer"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/store"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/anthropic"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/apify"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/gemini"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/jina"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/notion"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/salesforce"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/serper"
)

// pipelineEnv holds the store, cache and pipeline built for the serve and
// source commands.
type pipelineEnv struct {
	Store    store.Store
	Cache    *store.Cache
	Pipeline *pipeline.Pipeline
	Breakers *resilience.Breakers
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, opens the store and wires
// every collaborator. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	classifier, sc, err := initLLM(ctx)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	cache := store.NewCache(st, cfg.Store.CacheTTL())

	breakers := resilience.NewBreakers(resilience.BreakerConfig{
		FailureThreshold: cfg.Upstream.BreakerFailures,
		ResetTimeout:     time.Duration(cfg.Upstream.BreakerResetSecs) * time.Second,
	})
	retry := resilience.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Upstream.MaxAttempts
	guard := &resilience.Guard{
		Timeout:  cfg.Upstream.Timeout(),
		Retry:    retry,
		Breakers: breakers,
	}

	p := pipeline.New(pipeline.Deps{
		Classifier: classifier,
		Searcher:   initSearcher(),
		Fetcher:    initFetcher(),
		Scorer:     sc,
		Cache:      cache,
		Guard:      guard,
	},
		pipeline.WithSearchLimit(cfg.Search.MaxItems),
		pipeline.WithGateOptions(
			scorer.WithThreshold(cfg.Scoring.Threshold),
			scorer.WithConcurrency(cfg.Scoring.Concurrency),
			scorer.WithRateLimit(cfg.Upstream.RateLimitRPS),
		),
	)

	zap.L().Info("pipeline initialized",
		zap.String("llm", cfg.LLM.Provider),
		zap.String("search", cfg.Search.Provider),
		zap.String("store", cfg.Store.Driver),
		zap.Int("threshold", cfg.Scoring.Threshold),
	)

	return &pipelineEnv{Store: st, Cache: cache, Pipeline: p, Breakers: breakers}, nil
}

// initLLM builds the platform classifier and profile scorer for the
// configured backend.
func initLLM(ctx context.Context) (pipeline.Classifier, scorer.Scorer, error) {
	if cfg.LLM.Provider == "rules" {
		return llm.RuleClassifier{}, llm.RuleScorer{}, nil
	}

	prompts, err := llm.LoadPrompts()
	if err != nil {
		return nil, nil, err
	}

	var classify, score llm.Completer
	switch cfg.LLM.Provider {
	case "anthropic":
		client := anthropic.NewClient(cfg.Anthropic.Key)
		classify = &llm.AnthropicCompleter{
			Client:    client,
			Model:     cfg.Anthropic.ClassifierModel,
			MaxTokens: cfg.Anthropic.MaxTokens,
			Phase:     "classify",
		}
		score = &llm.AnthropicCompleter{
			Client:    client,
			Model:     cfg.Anthropic.ScorerModel,
			MaxTokens: cfg.Anthropic.MaxTokens,
			Phase:     "score",
		}
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Gemini.Key, BaseURL: cfg.Gemini.BaseURL})
		if err != nil {
			return nil, nil, err
		}
		completer := &llm.GeminiCompleter{Client: client, Model: cfg.Gemini.Model}
		classify, score = completer, completer
	default:
		return nil, nil, eris.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}

	return llm.NewClassifier(classify, prompts), llm.NewScorer(score, prompts), nil
}

func initSearcher() provider.Searcher {
	rps := provider.WithRateLimit(cfg.Upstream.RateLimitRPS)
	if cfg.Search.Provider == "serper" {
		client := serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
		return provider.NewSerperSearcher(client, cfg.Serper.Country, rps)
	}
	client := apify.NewClient(cfg.Apify.Token, apify.WithBaseURL(cfg.Apify.BaseURL))
	return provider.NewApifySearcher(client, cfg.Apify.SearchActor, cfg.Search.MaxItems, rps)
}

// initFetcher prefers the Apify profile actor, then the Jina reader when
// enabled, and finally reads the public page.
func initFetcher() provider.Fetcher {
	rps := provider.WithRateLimit(cfg.Upstream.RateLimitRPS)
	var chain provider.FetchChain
	if cfg.Apify.Token != "" {
		client := apify.NewClient(cfg.Apify.Token, apify.WithBaseURL(cfg.Apify.BaseURL))
		chain = append(chain, provider.NewApifyFetcher(client, cfg.Apify.ProfileActor, rps))
	}
	if cfg.Jina.Enabled {
		client := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
		chain = append(chain, provider.NewReaderFetcher(client, rps))
	}
	return append(chain, provider.NewPageFetcher(nil, rps))
}

// initPushers builds the pushers named in targets ("notion", "salesforce").
func initPushers(targets []string) ([]export.Pusher, error) {
	var pushers []export.Pusher
	for _, t := range targets {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "":
		case "notion":
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return nil, eris.New("notion push requires notion.token and notion.lead_db (LEADS_NOTION_TOKEN, LEADS_NOTION_LEAD_DB)")
			}
			pushers = append(pushers, export.NewNotionPusher(notion.NewClient(cfg.Notion.Token), cfg.Notion.LeadDB))
		case "salesforce":
			sf, err := initSalesforce()
			if err != nil {
				return nil, err
			}
			pushers = append(pushers, export.NewSalesforcePusher(sf, cfg.Salesforce.ScoreField))
		default:
			return nil, eris.Errorf("unknown push target %q (want notion or salesforce)", t)
		}
	}
	return pushers, nil
}

func initSalesforce() (salesforce.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADS_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	return salesforce.Connect(salesforce.Creds{
		LoginURL:    cfg.Salesforce.LoginURL,
		Username:    cfg.Salesforce.Username,
		ConsumerKey: cfg.Salesforce.ClientID,
		PrivateKey:  string(pemData),
	}, salesforce.WithRateLimit(cfg.Upstream.RateLimitRPS))
}
