package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/serper"
)

type mockApify struct{ mock.Mock }

func (m *mockApify) RunSync(ctx context.Context, actorID string, input any) ([]map[string]any, error) {
	args := m.Called(ctx, actorID, input)
	if v := args.Get(0); v != nil {
		return v.([]map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSerper struct{ mock.Mock }

func (m *mockSerper) Search(ctx context.Context, req serper.SearchRequest) (*serper.SearchResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*serper.SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type fetcherFunc func(ctx context.Context, urls []string) ([]model.RawProfile, error)

func (f fetcherFunc) Fetch(ctx context.Context, urls []string) ([]model.RawProfile, error) {
	return f(ctx, urls)
}
