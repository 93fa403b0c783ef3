package export

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/salesforce"
)

type mockNotion struct{ mock.Mock }

func (m *mockNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if v := args.Get(0); v != nil {
		return v.(*notionapi.DatabaseQueryResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*notionapi.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if v := args.Get(0); v != nil {
		return v.(*notionapi.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func keyFilter(key string) any {
	return mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		f, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && f.Property == notionKey && f.RichText != nil && f.RichText.Equals == key
	})
}

func TestNotionPusher_CreatesAndUpdates(t *testing.T) {
	nc := &mockNotion{}
	leads := sampleLeads()

	nc.On("QueryDatabase", mock.Anything, "db-1", keyFilter("https://www.linkedin.com/in/jane-doe")).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "page-1"}}}, nil)
	nc.On("QueryDatabase", mock.Anything, "db-1", keyFilter("noemail@generated.edu")).
		Return(&notionapi.DatabaseQueryResponse{}, nil)
	nc.On("UpdatePage", mock.Anything, "page-1", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		_, hasURL := req.Properties[notionURL]
		status, _ := req.Properties[notionStatus].(notionapi.SelectProperty)
		return hasURL && status.Select.Name == "New"
	})).Return(&notionapi.Page{ID: "page-1"}, nil)
	nc.On("CreatePage", mock.Anything, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		_, hasURL := req.Properties[notionURL]
		return !hasURL && req.Parent.DatabaseID == "db-1"
	})).Return(&notionapi.Page{ID: "page-2"}, nil)

	res, err := NewNotionPusher(nc, "db-1").Push(context.Background(), leads)

	require.NoError(t, err)
	assert.Equal(t, "notion", res.Target)
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.Failed)
	nc.AssertExpectations(t)
}

func TestNotionPusher_FailureContinues(t *testing.T) {
	nc := &mockNotion{}
	nc.On("QueryDatabase", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("notion down")).Once()
	nc.On("QueryDatabase", mock.Anything, mock.Anything, mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil)
	nc.On("CreatePage", mock.Anything, mock.Anything).Return(&notionapi.Page{}, nil)

	res, err := NewNotionPusher(nc, "db").Push(context.Background(), sampleLeads())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "notion down")
}

func TestNotionPusher_Cancelled(t *testing.T) {
	nc := &mockNotion{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNotionPusher(nc, "db").Push(ctx, sampleLeads())
	assert.ErrorIs(t, err, context.Canceled)
	nc.AssertNotCalled(t, "QueryDatabase", mock.Anything, mock.Anything, mock.Anything)
}

type fakeSalesforce struct {
	existing []salesforce.Lead
	inserted []map[string]any
	updated  []salesforce.CollectionRecord
	queryErr error
}

func (f *fakeSalesforce) Query(_ context.Context, _ string, out any) error {
	if f.queryErr != nil {
		return f.queryErr
	}
	*out.(*[]salesforce.Lead) = f.existing
	return nil
}

func (f *fakeSalesforce) InsertCollection(_ context.Context, _ string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	f.inserted = append(f.inserted, records...)
	out := make([]salesforce.CollectionResult, len(records))
	for i := range out {
		out[i] = salesforce.CollectionResult{Success: true}
	}
	return out, nil
}

func (f *fakeSalesforce) UpdateCollection(_ context.Context, _ string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
	f.updated = append(f.updated, records...)
	out := make([]salesforce.CollectionResult, len(records))
	for i := range out {
		out[i] = salesforce.CollectionResult{Success: true}
	}
	return out, nil
}

func TestSalesforcePusher(t *testing.T) {
	sf := &fakeSalesforce{existing: []salesforce.Lead{{ID: "00Q1", Email: "Jane.Doe@acme.com"}}}

	res, err := NewSalesforcePusher(sf, "Lead_Score__c").Push(context.Background(), sampleLeads())

	require.NoError(t, err)
	assert.Equal(t, "salesforce", res.Target)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Created)

	require.Len(t, sf.updated, 1)
	jane := sf.updated[0].Fields
	assert.Equal(t, "00Q1", sf.updated[0].ID)
	assert.Equal(t, "Jane", jane["FirstName"])
	assert.Equal(t, "Doe", jane["LastName"])
	assert.Equal(t, "Acme", jane["Company"])
	assert.Equal(t, "Data Scientist", jane["Title"])
	assert.Equal(t, LeadSource, jane["LeadSource"])
	assert.Equal(t, 8, jane["Lead_Score__c"])

	require.Len(t, sf.inserted, 1)
	unknown := sf.inserted[0]
	assert.Equal(t, model.UnknownName, unknown["LastName"])
	assert.Equal(t, "Unknown", unknown["Company"])
	assert.NotContains(t, unknown, "Title")
	assert.NotContains(t, unknown, "Country")
}

func TestSalesforcePusher_QueryError(t *testing.T) {
	sf := &fakeSalesforce{queryErr: errors.New("session expired")}

	_, err := NewSalesforcePusher(sf, "").Push(context.Background(), sampleLeads())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Mary Ann Smith-Jones", "Mary Ann", "Smith-Jones"},
		{"Cher", "", "Cher"},
		{"", "", "Unknown"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
