package llm

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// Classifier asks a completion backend which platform a link belongs to.
type Classifier struct {
	completer Completer
	prompt    Prompt
}

// NewClassifier creates a Classifier using the platform prompt from p.
func NewClassifier(c Completer, p *Prompts) *Classifier {
	return &Classifier{completer: c, prompt: p.Platform}
}

// Classify returns the platform of link. Backend failures are returned
// unchanged for the caller to classify.
func (c *Classifier) Classify(ctx context.Context, link string) (model.Platform, error) {
	answer, err := c.completer.Complete(ctx, c.prompt.System, c.prompt.Render(map[string]string{"link": link}))
	if err != nil {
		return model.PlatformUnknown, err
	}
	platform := parseAnswer(answer)
	zap.L().Debug("llm: classified link",
		zap.String("link", link),
		zap.String("answer", answer),
		zap.String("platform", string(platform)),
	)
	return platform, nil
}

// parseAnswer reads a platform label from a model reply. The whole reply is
// tried first, then each word in order.
func parseAnswer(answer string) model.Platform {
	if p := model.ParsePlatform(answer); p != model.PlatformUnknown {
		return p
	}
	for _, word := range strings.Fields(answer) {
		if p := model.ParsePlatform(word); p != model.PlatformUnknown {
			return p
		}
	}
	return model.PlatformUnknown
}

// hostPlatforms maps registrable domains to platforms.
var hostPlatforms = map[string]model.Platform{
	"linkedin.com":  model.PlatformLinkedIn,
	"lnkd.in":       model.PlatformLinkedIn,
	"instagram.com": model.PlatformInstagram,
	"instagr.am":    model.PlatformInstagram,
	"x.com":         model.PlatformX,
	"twitter.com":   model.PlatformX,
	"facebook.com":  model.PlatformFacebook,
	"fb.com":        model.PlatformFacebook,
	"fb.me":         model.PlatformFacebook,
}

// RuleClassifier classifies links by host name without calling a model.
type RuleClassifier struct{}

// Classify implements the pipeline classifier contract.
func (RuleClassifier) Classify(_ context.Context, link string) (model.Platform, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return model.PlatformUnknown, nil
	}
	host := strings.ToLower(u.Hostname())
	for domain, p := range hostPlatforms {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return p, nil
		}
	}
	return model.PlatformUnknown, nil
}
