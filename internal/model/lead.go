// Package model defines the profile and cache record types shared by the
// lead pipeline.
package model

import "time"

// Sentinel values used in place of missing profile data.
const (
	NotAvailable = "Not available"
	UnknownName  = "Unknown"
)

// SummaryLimit is the maximum number of characters kept from a profile's
// free-text about section.
const SummaryLimit = 200

// RawProfile is an untyped record as returned by a search or fetch provider.
// Field names vary by provider; only the normalizer interprets them.
type RawProfile map[string]any

// CanonicalProfile is the normalized, total representation of a lead.
// String fields hold either a value or NotAvailable; CurrentRole and
// LinkedInURL are nil when the provider had nothing.
type CanonicalProfile struct {
	Name        string  `json:"name"`
	CurrentRole *string `json:"current_role"`
	Company     string  `json:"company"`
	Education   string  `json:"education"`
	Degree      string  `json:"degree"`
	Country     string  `json:"country"`
	City        string  `json:"city"`
	LinkedInURL *string `json:"linkedin_url"`
	Summary     string  `json:"summary"`
}

// Role returns the current role or "" when absent.
func (p CanonicalProfile) Role() string {
	if p.CurrentRole == nil {
		return ""
	}
	return *p.CurrentRole
}

// URL returns the LinkedIn URL or "" when absent.
func (p CanonicalProfile) URL() string {
	if p.LinkedInURL == nil {
		return ""
	}
	return *p.LinkedInURL
}

// EnrichedProfile is a canonical profile that passed the scoring gate.
type EnrichedProfile struct {
	CanonicalProfile
	Email string `json:"email"`
	Score int    `json:"score"`
}

// CachedSearch describes one row of the search cache without its payload.
type CachedSearch struct {
	Fingerprint string    `json:"id"`
	Keywords    string    `json:"keywords"`
	Country     string    `json:"country"`
	Page        int       `json:"page"`
	Results     int       `json:"results"`
	Timestamp   time.Time `json:"timestamp"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsMissing reports whether v is empty or a sentinel value.
func IsMissing(v string) bool {
	return v == "" || v == NotAvailable || v == UnknownName
}
