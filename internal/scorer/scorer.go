// Package scorer rates canonical profiles with an external scorer and keeps
// those that meet the quality threshold.
package scorer

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// Score bounds and defaults.
const (
	MinScore         = 1
	MaxScore         = 10
	NeutralScore     = 5
	DefaultThreshold = 5
)

const noKeywordsCriteria = "No keywords provided. Evaluate the profile generally."

// Scorer rates how well a profile matches the criteria. The reply is free
// text expected to contain an integer from 1 to 10.
type Scorer interface {
	Score(ctx context.Context, profile model.CanonicalProfile, criteria string) (string, error)
}

var (
	scoreRe   = regexp.MustCompile(`\b(10|[1-9])\b`)
	integerRe = regexp.MustCompile(`\d+`)
)

// ParseScore extracts the score from a scorer reply. The first standalone
// 1-10 token wins; otherwise the first integer is clamped into range. When
// the reply holds no number it returns NeutralScore and false.
func ParseScore(raw string) (int, bool) {
	if m := scoreRe.FindString(raw); m != "" {
		n, _ := strconv.Atoi(m)
		return clamp(n), true
	}
	if m := integerRe.FindString(raw); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			// Too many digits for an int: far above range.
			return MaxScore, true
		}
		return clamp(n), true
	}
	return NeutralScore, false
}

func clamp(n int) int {
	switch {
	case n < MinScore:
		return MinScore
	case n > MaxScore:
		return MaxScore
	default:
		return n
	}
}

// BuildCriteria renders the natural-language criteria sent with a profile.
func BuildCriteria(keywords string, p model.CanonicalProfile) string {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return noKeywordsCriteria + " Snippet: " + snippet(p)
	}
	return "Keywords: " + keywords + ". Snippet: " + snippet(p)
}

func snippet(p model.CanonicalProfile) string {
	if !model.IsMissing(p.Summary) {
		return p.Summary
	}
	parts := make([]string, 0, 2)
	if r := p.Role(); r != "" {
		parts = append(parts, r)
	}
	if !model.IsMissing(p.Company) {
		parts = append(parts, p.Company)
	}
	if len(parts) == 0 {
		return model.NotAvailable
	}
	return strings.Join(parts, " - ")
}
