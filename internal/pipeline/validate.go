package pipeline

import (
	"regexp"
	"strings"
)

// MaxKeywordTokens bounds the number of whitespace separated keywords.
const MaxKeywordTokens = 20

var (
	linkedInLinkRe    = regexp.MustCompile(`(?i)^https?://([a-z0-9-]+\.)?linkedin\.com/(in|company|posts|feed)/[^\s]*$`)
	linkedInProfileRe = regexp.MustCompile(`(?i)^https?://([a-z0-9-]+\.)?linkedin\.com/in/[^/\s?#]+`)
)

// Request is one run_pipeline call.
type Request struct {
	Link     string `json:"link,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Country  string `json:"country,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// validate trims the request and applies defaults. It returns a
// ValidationError for unusable input.
func validate(req Request) (Request, error) {
	req.Link = strings.TrimSpace(req.Link)
	req.Keywords = strings.TrimSpace(req.Keywords)
	req.Country = strings.TrimSpace(req.Country)
	if req.Page <= 0 {
		req.Page = 1
	}

	if req.Link == "" && req.Keywords == "" {
		return req, validationErrorf("Either a link or keywords must be provided")
	}
	if n := len(strings.Fields(req.Keywords)); n > MaxKeywordTokens {
		return req, validationErrorf("Too many keywords: %d (maximum %d)", n, MaxKeywordTokens)
	}
	if req.Link != "" && !linkedInLinkRe.MatchString(req.Link) {
		return req, validationErrorf("The provided link does not belong to a supported platform")
	}
	return req, nil
}

// isProfileLink reports whether link points at a single LinkedIn profile.
func isProfileLink(link string) bool {
	return linkedInProfileRe.MatchString(link)
}
