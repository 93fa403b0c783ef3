package normalize

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

const (
	// FallbackEmail is returned when no address can be derived.
	FallbackEmail = "noemail@generated.edu"

	systemDomain = "systemgenerated.edu"
)

var legalSuffixes = map[string]bool{
	"inc": true, "incorporated": true,
	"llc": true,
	"ltd": true, "limited": true,
	"corp": true, "corporation": true,
	"company": true, "co": true,
	"group": true,
	"plc":   true,
}

// Words that name the kind of institution rather than the institution.
var institutionWords = map[string]bool{
	"university": true,
	"college":    true,
	"the":        true,
	"of":         true,
}

var meaninglessSlugs = map[string]bool{
	"unknown":      true,
	"selfemployed": true,
	"notavailable": true,
	"none":         true,
	"null":         true,
}

// GenerateEmail derives a guessed contact address for p. The company domain
// is preferred, then the school domain, then a generated placeholder domain.
// It never fails.
func GenerateEmail(p model.CanonicalProfile) (email string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("normalize: email generation failed", zap.Any("panic", r))
			email = FallbackEmail
		}
	}()

	tokens := strings.Fields(p.Name)
	if len(tokens) < 2 {
		return FallbackEmail
	}
	first := localPart(tokens[0])
	last := localPart(tokens[len(tokens)-1])
	if first == "" || last == "" {
		return FallbackEmail
	}
	local := first + "." + last

	if slug := companySlug(p.Company); slug != "" {
		return local + "@" + slug + ".com"
	}
	if slug := educationSlug(p.Education); slug != "" {
		return local + "@" + slug + ".edu"
	}
	return local + "@" + systemDomain
}

func localPart(token string) string {
	token = fold(strings.ToLower(token))
	token = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, token)
	return strings.Trim(token, "-")
}

func companySlug(company string) string {
	if model.IsMissing(company) {
		return ""
	}
	words := strings.Fields(strings.NewReplacer(",", " ", "&", " ").Replace(strings.ToLower(company)))
	for len(words) > 1 && legalSuffixes[strings.Trim(words[len(words)-1], ".")] {
		words = words[:len(words)-1]
	}
	return acceptSlug(alnum(strings.Join(words, "")))
}

func educationSlug(education string) string {
	if model.IsMissing(education) {
		return ""
	}
	words := strings.Fields(strings.NewReplacer(",", " ", "-", " ").Replace(strings.ToLower(education)))
	kept := words[:0]
	for _, w := range words {
		if !institutionWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		kept = words
	}
	return acceptSlug(alnum(strings.Join(kept, "")))
}

func acceptSlug(slug string) string {
	if len(slug) <= 1 || meaninglessSlugs[slug] {
		return ""
	}
	return slug
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, fold(s))
}

// fold strips diacritics so "José" becomes "Jose".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
