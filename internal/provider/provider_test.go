package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewSearchRequest(t *testing.T) {
	tests := []struct {
		name     string
		keywords string
		country  string
		page     int
		want     SearchRequest
	}{
		{
			name: "with country", keywords: " python developer ", country: "Kenya", page: 2,
			want: SearchRequest{Query: "python developer Kenya", Keywords: "python developer", Country: "Kenya", Page: 2},
		},
		{
			name: "no country", keywords: "golang", page: 1,
			want: SearchRequest{Query: "golang", Keywords: "golang", Page: 1},
		},
		{
			name: "page clamped", keywords: "golang", page: 0,
			want: SearchRequest{Query: "golang", Keywords: "golang", Page: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSearchRequest(tt.keywords, tt.country, tt.page, 0))
		})
	}
}

func TestApifySearcher_Input(t *testing.T) {
	client := &mockApify{}
	client.On("RunSync", mock.Anything, "actor~search", map[string]any{
		"searchQuery":        "python developer Kenya",
		"startPage":          3,
		"maxItems":           10,
		"profileScraperMode": "Full",
	}).Return([]map[string]any{{"fullName": "Jane Doe"}}, nil)

	s := NewApifySearcher(client, "actor~search", 0)
	out, err := s.Search(context.Background(), NewSearchRequest("python developer", "Kenya", 3, 0))

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Jane Doe", out[0]["fullName"])
	client.AssertExpectations(t)
}

func TestApifySearcher_DefaultsAndLimit(t *testing.T) {
	client := &mockApify{}
	client.On("RunSync", mock.Anything, DefaultSearchActor, mock.MatchedBy(func(in map[string]any) bool {
		return in["maxItems"] == 25
	})).Return([]map[string]any{}, nil)

	s := NewApifySearcher(client, "", 5)
	out, err := s.Search(context.Background(), NewSearchRequest("go", "", 1, 25))

	require.NoError(t, err)
	assert.Empty(t, out)
	client.AssertExpectations(t)
}

func TestApifySearcher_Error(t *testing.T) {
	client := &mockApify{}
	client.On("RunSync", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := NewApifySearcher(client, "", 0).Search(context.Background(), NewSearchRequest("go", "", 1, 0))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestApifyFetcher(t *testing.T) {
	client := &mockApify{}
	urls := []string{"https://www.linkedin.com/in/jane-doe"}
	client.On("RunSync", mock.Anything, DefaultProfileActor, map[string]any{"profileUrls": urls}).
		Return([]map[string]any{{"fullName": "Jane Doe"}}, nil)

	out, err := NewApifyFetcher(client, "").Fetch(context.Background(), urls)

	require.NoError(t, err)
	require.Len(t, out, 1)
	client.AssertExpectations(t)
}

func TestApifyFetcher_NoURLs(t *testing.T) {
	client := &mockApify{}

	out, err := NewApifyFetcher(client, "").Fetch(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	client.AssertNotCalled(t, "RunSync", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithRateLimit_CancelledContext(t *testing.T) {
	client := &mockApify{}
	s := NewApifySearcher(client, "", 0, WithRateLimit(0.001))

	// First call consumes the burst token.
	client.On("RunSync", mock.Anything, mock.Anything, mock.Anything).Return([]map[string]any{}, nil).Once()
	_, err := s.Search(context.Background(), NewSearchRequest("go", "", 1, 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Search(ctx, NewSearchRequest("go", "", 1, 0))
	assert.Error(t, err)
	client.AssertNumberOfCalls(t, "RunSync", 1)
}
