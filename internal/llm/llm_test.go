package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func mustPrompts(t *testing.T) *Prompts {
	t.Helper()
	p, err := LoadPrompts()
	require.NoError(t, err)
	return p
}

func TestLoadPrompts(t *testing.T) {
	p := mustPrompts(t)
	assert.Contains(t, p.Platform.System, "ONE WORD ANSWER")
	assert.Contains(t, p.Platform.User, "{link}")
	assert.Contains(t, p.Score.User, "{criteria}")
}

func TestParsePrompts_Missing(t *testing.T) {
	_, err := ParsePrompts([]byte("platform:\n  system: x\n  user: y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score prompt is missing")

	_, err = ParsePrompts([]byte("platform: [oops"))
	require.Error(t, err)
}

func TestPromptRender(t *testing.T) {
	p := Prompt{User: "Link: {link} ({link})"}
	assert.Equal(t, "Link: a (a)", p.Render(map[string]string{"link": "a"}))
}

func TestClassifier_Classify(t *testing.T) {
	prompts := mustPrompts(t)
	tests := []struct {
		answer string
		want   model.Platform
	}{
		{"linkedin", model.PlatformLinkedIn},
		{"LinkedIn.", model.PlatformLinkedIn},
		{"The platform is Instagram", model.PlatformInstagram},
		{"twitter", model.PlatformX},
		{"unknown", model.PlatformUnknown},
		{"", model.PlatformUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			mc := new(mockCompleter)
			mc.On("Complete", mock.Anything, prompts.Platform.System, "Link: https://example.com/a").
				Return(tt.answer, nil).Once()

			got, err := NewClassifier(mc, prompts).Classify(context.Background(), "https://example.com/a")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			mc.AssertExpectations(t)
		})
	}
}

func TestClassifier_BackendError(t *testing.T) {
	mc := new(mockCompleter)
	mc.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)

	got, err := NewClassifier(mc, mustPrompts(t)).Classify(context.Background(), "https://x.com/a")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, model.PlatformUnknown, got)
}

func TestRuleClassifier(t *testing.T) {
	tests := map[string]model.Platform{
		"https://www.linkedin.com/in/jane-doe": model.PlatformLinkedIn,
		"https://ke.linkedin.com/in/jane":      model.PlatformLinkedIn,
		"https://instagram.com/jane":           model.PlatformInstagram,
		"https://twitter.com/jane":             model.PlatformX,
		"https://x.com/jane":                   model.PlatformX,
		"https://m.facebook.com/jane":          model.PlatformFacebook,
		"https://notlinkedin.com/in/jane":      model.PlatformUnknown,
		"https://example.com":                  model.PlatformUnknown,
		"not a url":                            model.PlatformUnknown,
	}
	for link, want := range tests {
		got, err := RuleClassifier{}.Classify(context.Background(), link)
		require.NoError(t, err)
		assert.Equal(t, want, got, link)
	}
}

func TestScorer_RendersProfile(t *testing.T) {
	prompts := mustPrompts(t)
	p := model.CanonicalProfile{
		Name:        "Jane Doe",
		CurrentRole: model.StringPtr("Data Scientist"),
		Company:     "Acme",
		Education:   model.NotAvailable,
		Country:     "Kenya",
		City:        "Nairobi",
		Summary:     "Builds models.",
	}

	mc := new(mockCompleter)
	mc.On("Complete", mock.Anything, prompts.Score.System, mock.MatchedBy(func(user string) bool {
		return assert.Contains(t, user, "Criteria: Keywords: python. Snippet: Builds models.") &&
			assert.Contains(t, user, "Current role: Data Scientist") &&
			assert.Contains(t, user, "Location: Nairobi, Kenya")
	})).Return("8", nil).Once()

	out, err := NewScorer(mc, prompts).Score(context.Background(), p, "Keywords: python. Snippet: Builds models.")
	require.NoError(t, err)
	assert.Equal(t, "8", out)
	mc.AssertExpectations(t)
}

func TestRuleScorer(t *testing.T) {
	p := model.CanonicalProfile{
		Name:        "Jane Doe",
		CurrentRole: model.StringPtr("Senior Python Developer"),
		Company:     "Acme",
		Summary:     "Django and data pipelines.",
	}

	out, err := RuleScorer{}.Score(context.Background(), p, "Keywords: python django. Snippet: x")
	require.NoError(t, err)
	assert.Equal(t, "Score: 10", out)

	out, err = RuleScorer{}.Score(context.Background(), p, "Keywords: python rust. Snippet: x")
	require.NoError(t, err)
	assert.Equal(t, "Score: 5", out)

	out, err = RuleScorer{}.Score(context.Background(), p, "Keywords: golang. Snippet: x")
	require.NoError(t, err)
	assert.Equal(t, "Score: 1", out)

	out, err = RuleScorer{}.Score(context.Background(), p, "No keywords provided. Evaluate the profile generally.")
	require.NoError(t, err)
	assert.Equal(t, "Score: 5", out)
}
