package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func keyFilter(property, value string) func(*notionapi.DatabaseQueryRequest) bool {
	return func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		if !ok {
			return false
		}
		return pf.Property == property && pf.RichText != nil && pf.RichText.Equals == value
	}
}

func TestPropertyBuilders(t *testing.T) {
	tp := Title("Jane Doe")
	assert.Equal(t, notionapi.PropertyTypeTitle, tp.Type)
	require.Len(t, tp.Title, 1)
	assert.Equal(t, "Jane Doe", tp.Title[0].Text.Content)

	assert.Equal(t, "Engineer", RichText("Engineer").RichText[0].Text.Content)
	assert.Equal(t, "https://linkedin.com/in/jane", URL("https://linkedin.com/in/jane").URL)
	assert.Equal(t, "jane.doe@acme.com", Email("jane.doe@acme.com").Email)
	assert.Equal(t, 7.0, Number(7).Number)
	assert.Equal(t, "New", Select("New").Select.Name)
}

func TestFindByText_NoMatch(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(keyFilter("Lead Key", "k1"))).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{}}, nil).Once()

	page, err := FindByText(ctx, mc, "db-1", "Lead Key", "k1")
	require.NoError(t, err)
	assert.Nil(t, page)
	mc.AssertExpectations(t)
}

func TestUpsertPage_Creates(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(keyFilter("Lead Key", "k1"))).
		Return(&notionapi.DatabaseQueryResponse{}, nil).Once()

	var captured *notionapi.PageCreateRequest
	mc.On("CreatePage", ctx, mock.AnythingOfType("*notionapi.PageCreateRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*notionapi.PageCreateRequest)
		}).
		Return(&notionapi.Page{ID: "new"}, nil).Once()

	props := notionapi.Properties{"Name": Title("Jane")}
	created, err := UpsertPage(ctx, mc, "db-1", "Lead Key", "k1", props)

	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, captured)
	assert.Equal(t, notionapi.DatabaseID("db-1"), captured.Parent.DatabaseID)
	assert.Equal(t, notionapi.ParentTypeDatabaseID, captured.Parent.Type)
	assert.Contains(t, captured.Properties, "Name")
	mc.AssertExpectations(t)
}

func TestUpsertPage_UpdatesExisting(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(keyFilter("Lead Key", "k1"))).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "page-9"}}}, nil).Once()
	mc.On("UpdatePage", ctx, "page-9", mock.AnythingOfType("*notionapi.PageUpdateRequest")).
		Return(&notionapi.Page{ID: "page-9"}, nil).Once()

	created, err := UpsertPage(ctx, mc, "db-1", "Lead Key", "k1", notionapi.Properties{})
	require.NoError(t, err)
	assert.False(t, created)
	mc.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything)
	mc.AssertExpectations(t)
}

func TestUpsertPage_QueryError(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(nil, assert.AnError).Once()

	_, err := UpsertPage(ctx, mc, "db-1", "Lead Key", "k1", notionapi.Properties{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: find page by Lead Key")
}

func TestUpsertPage_CreateError(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(nil, assert.AnError).Once()

	created, err := UpsertPage(ctx, mc, "db-1", "Lead Key", "k1", notionapi.Properties{})
	require.Error(t, err)
	assert.False(t, created)
	assert.Contains(t, err.Error(), "notion: upsert create")
}
