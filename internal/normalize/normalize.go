// Package normalize turns heterogeneous provider records into canonical
// lead profiles and derives contact emails from them.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

var (
	titleCaser = cases.Title(language.English)

	profileSlugRe  = regexp.MustCompile(`/in/([^/?#]+)`)
	titleSeparator = regexp.MustCompile(`\s+[-|–—]\s+`)
)

// Normalize maps a raw provider record onto the canonical profile. It never
// fails: a field that cannot be extracted takes its sentinel value.
func Normalize(raw model.RawProfile) model.CanonicalProfile {
	m := map[string]any(raw)

	p := model.CanonicalProfile{
		Name:      safe("name", model.UnknownName, func() string { return extractName(m) }),
		Company:   model.NotAvailable,
		Education: model.NotAvailable,
		Degree:    model.NotAvailable,
		Country:   model.NotAvailable,
		City:      model.NotAvailable,
	}

	p.LinkedInURL = model.StringPtr(safe("linkedin_url", "", func() string { return extractURL(m) }))
	p.CurrentRole = model.StringPtr(safe("current_role", "", func() string { return extractRole(m) }))
	p.Company = safe("company", model.NotAvailable, func() string { return extractCompany(m, p.Role()) })
	p.Education = safe("education", model.NotAvailable, func() string {
		return firstString(firstEntry(m, "educations", "education", "schools"), "schoolName", "SchoolName", "school", "title", "name")
	})
	p.Degree = safe("degree", model.NotAvailable, func() string {
		return firstString(firstEntry(m, "educations", "education", "schools"), "degree", "degreeName", "subtitle")
	})
	p.Country = safe("country", model.NotAvailable, func() string { return locationField(m, "country") })
	p.City = safe("city", model.NotAvailable, func() string { return locationField(m, "city") })
	p.Summary = safe("summary", "", func() string {
		return truncate(firstString(m, "about", "summary", "snippet", "description"), model.SummaryLimit)
	})

	return p
}

// NormalizeBatch normalizes records in order, skipping nil, empty or
// otherwise unusable ones.
func NormalizeBatch(raws []model.RawProfile) []model.CanonicalProfile {
	out := make([]model.CanonicalProfile, 0, len(raws))
	for i, raw := range raws {
		if len(raw) == 0 {
			zap.L().Warn("normalize: skipping empty record", zap.Int("index", i))
			continue
		}
		p, ok := normalizeRecord(raw)
		if !ok {
			zap.L().Warn("normalize: skipping corrupt record", zap.Int("index", i))
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalizeRecord(raw model.RawProfile) (p model.CanonicalProfile, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return Normalize(raw), true
}

// safe runs extract, returning fallback when it panics or yields "".
func safe(field, fallback string, extract func() string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("normalize: field extraction failed",
				zap.String("field", field),
				zap.Any("panic", r),
			)
			out = fallback
		}
	}()
	if v := extract(); v != "" {
		return v
	}
	return fallback
}

func extractName(m map[string]any) string {
	if n := firstString(m, "fullName", "name", "full_name"); n != "" {
		return n
	}

	first := firstString(m, "firstName", "first_name")
	last := firstString(m, "lastName", "last_name")
	if n := strings.TrimSpace(first + " " + last); n != "" {
		return n
	}

	if t := firstString(m, "title", "author"); t != "" {
		head := strings.TrimSpace(titleSeparator.Split(t, 2)[0])
		if head != "" && !strings.EqualFold(head, "linkedin") {
			return head
		}
	}

	return nameFromURL(extractURL(m))
}

// nameFromURL derives a display name from a /in/<slug> profile URL,
// dropping the numeric or hash suffix LinkedIn appends to duplicate names.
func nameFromURL(u string) string {
	match := profileSlugRe.FindStringSubmatch(u)
	if match == nil {
		return ""
	}
	slug, err := url.PathUnescape(match[1])
	if err != nil {
		slug = match[1]
	}

	parts := strings.Split(slug, "-")
	for len(parts) > 1 && strings.IndexFunc(parts[len(parts)-1], unicode.IsDigit) >= 0 {
		parts = parts[:len(parts)-1]
	}
	name := strings.TrimSpace(strings.Join(parts, " "))
	if name == "" {
		return ""
	}
	return titleCaser.String(name)
}

func extractURL(m map[string]any) string {
	return firstString(m, "linkedinUrl", "linkedinProfileUrl", "profileUrl", "url", "link")
}

func extractRole(m map[string]any) string {
	if r := firstString(m, "headline", "jobTitle", "position", "occupation"); r != "" {
		return r
	}
	return firstString(firstEntry(m, "experiences", "experience", "positions"), "title", "position")
}

func extractCompany(m map[string]any, role string) string {
	exp := firstEntry(m, "experiences", "experience", "positions")
	if c := firstString(exp, "companyName", "company", "subtitle"); c != "" {
		// Some actors render "Acme · Full-time" in the subtitle.
		return strings.TrimSpace(strings.Split(c, " · ")[0])
	}

	lower := strings.ToLower(role)
	if i := strings.LastIndex(lower, " at "); i >= 0 {
		return strings.TrimSpace(role[i+len(" at "):])
	}
	return ""
}

func locationField(m map[string]any, key string) string {
	loc := object(m, "location")
	if loc == nil {
		return ""
	}
	if v := str(object(loc, "parsed")[key]); v != "" {
		return v
	}
	return str(loc[key])
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
