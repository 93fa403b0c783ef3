// Package llm implements the platform classifier and lead scorer on top of a
// text completion backend.
package llm

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Prompt is a system instruction plus a user message template.
type Prompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Render substitutes {key} placeholders in the user template.
func (p Prompt) Render(vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(p.User)
}

// Prompts is the prompt catalog.
type Prompts struct {
	Platform Prompt `yaml:"platform"`
	Score    Prompt `yaml:"score"`
}

// LoadPrompts parses the embedded prompt catalog.
func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(promptsYAML)
}

// ParsePrompts parses a prompt catalog and checks every prompt is present.
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "llm: parse prompts")
	}
	if p.Platform.System == "" || p.Platform.User == "" {
		return nil, eris.New("llm: platform prompt is missing")
	}
	if p.Score.System == "" || p.Score.User == "" {
		return nil, eris.New("llm: score prompt is missing")
	}
	return &p, nil
}
