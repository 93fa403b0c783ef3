package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/config"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/llm"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/provider"
)

// withConfig installs c as the global config for the duration of the test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "cache.db")
	c.Store.CacheTTLHours = 24
	c.LLM.Provider = "rules"
	c.Search.Provider = "apify"
	c.Search.MaxItems = 10
	c.Apify.Token = "apify_token"
	c.Apify.BaseURL = "http://127.0.0.1:0"
	c.Upstream.TimeoutSecs = 5
	c.Upstream.MaxAttempts = 1
	c.Upstream.BreakerFailures = 5
	c.Upstream.BreakerResetSecs = 30
	c.Scoring.Threshold = 5
	c.Scoring.Concurrency = 1
	c.Server.Port = 8000
	return c
}

func TestInitPipeline_Rules(t *testing.T) {
	withConfig(t, testConfig(t))

	env, err := initPipeline(context.Background(), "source")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Cache)
	assert.NotNil(t, env.Breakers)
}

func TestInitPipeline_ValidationFails(t *testing.T) {
	c := testConfig(t)
	c.Apify.Token = ""
	withConfig(t, c)

	_, err := initPipeline(context.Background(), "source")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apify.token is required")
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mysql"
	withConfig(t, c)

	_, err := initStore(context.Background())
	assert.Error(t, err)
}

func TestInitLLM(t *testing.T) {
	c := testConfig(t)
	withConfig(t, c)

	classifier, sc, err := initLLM(context.Background())
	require.NoError(t, err)
	assert.IsType(t, llm.RuleClassifier{}, classifier)
	assert.IsType(t, llm.RuleScorer{}, sc)

	c.LLM.Provider = "anthropic"
	c.Anthropic.Key = "sk-ant-test"
	classifier, sc, err = initLLM(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &llm.Classifier{}, classifier)
	assert.IsType(t, &llm.Scorer{}, sc)

	c.LLM.Provider = "gemini"
	c.Gemini.Key = ""
	_, _, err = initLLM(context.Background())
	assert.Error(t, err)

	c.LLM.Provider = "openai"
	_, _, err = initLLM(context.Background())
	assert.Error(t, err)
}

func TestInitSearcher(t *testing.T) {
	c := testConfig(t)
	withConfig(t, c)

	assert.IsType(t, &provider.ApifySearcher{}, initSearcher())

	c.Search.Provider = "serper"
	c.Serper.Key = "k"
	assert.IsType(t, &provider.SerperSearcher{}, initSearcher())
}

func TestInitFetcher(t *testing.T) {
	c := testConfig(t)
	withConfig(t, c)

	chain, ok := initFetcher().(provider.FetchChain)
	require.True(t, ok)
	require.Len(t, chain, 2)
	assert.IsType(t, &provider.ApifyFetcher{}, chain[0])
	assert.IsType(t, &provider.PageFetcher{}, chain[1])

	c.Jina.Enabled = true
	chain = initFetcher().(provider.FetchChain)
	require.Len(t, chain, 3)
	assert.IsType(t, &provider.ReaderFetcher{}, chain[1])

	c.Apify.Token = ""
	c.Jina.Enabled = false
	chain = initFetcher().(provider.FetchChain)
	require.Len(t, chain, 1)
	assert.IsType(t, &provider.PageFetcher{}, chain[0])
}

func TestInitPushers(t *testing.T) {
	c := testConfig(t)
	withConfig(t, c)

	pushers, err := initPushers(nil)
	require.NoError(t, err)
	assert.Empty(t, pushers)

	_, err = initPushers([]string{"notion"})
	assert.ErrorContains(t, err, "notion.token")

	c.Notion.Token = "secret"
	c.Notion.LeadDB = "db"
	pushers, err = initPushers([]string{" Notion "})
	require.NoError(t, err)
	require.Len(t, pushers, 1)
	assert.Equal(t, "notion", pushers[0].Name())

	_, err = initPushers([]string{"salesforce"})
	assert.ErrorContains(t, err, "salesforce client ID is required")

	c.Salesforce.ClientID = "cid"
	c.Salesforce.KeyPath = filepath.Join(t.TempDir(), "missing.pem")
	_, err = initPushers([]string{"salesforce"})
	assert.ErrorContains(t, err, "read salesforce JWT private key")

	_, err = initPushers([]string{"hubspot"})
	assert.ErrorContains(t, err, "unknown push target")
}
