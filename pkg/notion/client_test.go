package notion

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func TestMockClientSatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ Client = (*MockClient)(nil)
}

func TestNewClientDefaultThrottle(t *testing.T) {
	c := NewClient("test-token").(*notionClient)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, float64(defaultRPS), float64(c.limiter.Limit()), 0.001)
}

func TestWithRateLimit(t *testing.T) {
	c := NewClient("test-token", WithRateLimit(10)).(*notionClient)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, 10.0, float64(c.limiter.Limit()), 0.001)
	assert.Equal(t, 10, c.limiter.Burst())

	c = NewClient("test-token", WithRateLimit(0)).(*notionClient)
	assert.Nil(t, c.limiter)
	assert.NoError(t, c.wait(context.Background()))
}

func TestWaitRespectsCancelledContext(t *testing.T) {
	c := NewClient("test-token", WithRateLimit(0.001)).(*notionClient)
	// Drain the single burst token.
	require.NoError(t, c.wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.wait(ctx))
}

func TestInvokeClassifiesAPIErrors(t *testing.T) {
	c := NewClient("test-token", WithRateLimit(0)).(*notionClient)

	_, err := invoke(context.Background(), c, "create page", func() (*notionapi.Page, error) {
		return nil, &notionapi.Error{Status: 429, Message: "rate limited"}
	})
	require.Error(t, err)
	kind, ok := resilience.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, resilience.KindRateLimit, kind)
	assert.Contains(t, err.Error(), "notion: create page")

	_, err = invoke(context.Background(), c, "query database db", func() (*notionapi.DatabaseQueryResponse, error) {
		return nil, errors.New("connection reset")
	})
	kind, ok = resilience.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, resilience.KindGeneric, kind)
}

func TestInvokePassesResult(t *testing.T) {
	c := NewClient("test-token", WithRateLimit(0)).(*notionClient)

	page, err := invoke(context.Background(), c, "create page", func() (*notionapi.Page, error) {
		return &notionapi.Page{ID: "p1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("p1"), page.ID)
}
