package model

import "strings"

// Platform is the social platform a seed link belongs to.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformFacebook  Platform = "facebook"
	PlatformUnknown   Platform = "unknown"
)

// ParsePlatform maps a free-form label to a Platform. Anything unrecognized
// is PlatformUnknown.
func ParsePlatform(label string) Platform {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Trim(label, " .,;:!\"'`")
	switch label {
	case "linkedin":
		return PlatformLinkedIn
	case "instagram":
		return PlatformInstagram
	case "x", "twitter":
		return PlatformX
	case "facebook":
		return PlatformFacebook
	default:
		return PlatformUnknown
	}
}

// Implemented reports whether lead sourcing exists for the platform.
func (p Platform) Implemented() bool {
	return p == PlatformLinkedIn
}
