package llm

import (
	"context"
	"strconv"
	"strings"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// Scorer asks a completion backend to rate a profile against criteria. The
// raw reply is returned for the scoring gate to parse.
type Scorer struct {
	completer Completer
	prompt    Prompt
}

// NewScorer creates a Scorer using the score prompt from p.
func NewScorer(c Completer, p *Prompts) *Scorer {
	return &Scorer{completer: c, prompt: p.Score}
}

// Score implements scorer.Scorer.
func (s *Scorer) Score(ctx context.Context, p model.CanonicalProfile, criteria string) (string, error) {
	return s.completer.Complete(ctx, s.prompt.System, s.prompt.Render(profileVars(p, criteria)))
}

func profileVars(p model.CanonicalProfile, criteria string) map[string]string {
	role := p.Role()
	if role == "" {
		role = model.NotAvailable
	}
	return map[string]string{
		"criteria":  criteria,
		"name":      p.Name,
		"role":      role,
		"company":   p.Company,
		"education": p.Education,
		"location":  location(p),
		"summary":   p.Summary,
	}
}

func location(p model.CanonicalProfile) string {
	var parts []string
	if !model.IsMissing(p.City) {
		parts = append(parts, p.City)
	}
	if !model.IsMissing(p.Country) {
		parts = append(parts, p.Country)
	}
	if len(parts) == 0 {
		return model.NotAvailable
	}
	return strings.Join(parts, ", ")
}

// RuleScorer rates a profile by the share of criteria keywords found in its
// role, company, education and summary. Used when no model is configured.
type RuleScorer struct{}

// Score implements scorer.Scorer. The reply has the form "Score: N".
func (RuleScorer) Score(_ context.Context, p model.CanonicalProfile, criteria string) (string, error) {
	keywords := criteriaKeywords(criteria)
	if len(keywords) == 0 {
		return "Score: 5", nil
	}

	text := strings.ToLower(strings.Join([]string{p.Role(), p.Company, p.Education, p.Degree, p.Summary}, " "))
	hits := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			hits++
		}
	}
	// 1 with no hits, 10 when every keyword appears.
	score := 1 + (9*hits)/len(keywords)
	return "Score: " + strconv.Itoa(score), nil
}

// criteriaKeywords extracts the lower-cased keyword tokens from criteria
// built as "Keywords: <kw>. Snippet: <text>".
func criteriaKeywords(criteria string) []string {
	kw, ok := strings.CutPrefix(criteria, "Keywords: ")
	if !ok {
		return nil
	}
	if i := strings.Index(kw, ". Snippet: "); i >= 0 {
		kw = kw[:i]
	}
	var out []string
	for _, f := range strings.Fields(strings.ToLower(kw)) {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
