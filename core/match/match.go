// Package match classifies commit messages against known AI assistant signatures.
package match

import (
	"regexp"

	"github.com/ncolesummers/ai-code-metrics/schema"
)

// signature pairs an assistant with the patterns that identify it.
type signature struct {
	assistant schema.Assistant
	patterns  []*regexp.Regexp
}

// signatures is evaluated in order and the first assistant with a matching pattern wins.
var signatures = []signature{
	{
		assistant: schema.ClaudeCode,
		patterns: compileAll(
			`🤖 Generated with \[Claude Code\]`,
			`Co-Authored-By: Claude <noreply@anthropic\.com>`,
		),
	},
	{
		assistant: schema.GitHubCopilot,
		patterns: compileAll(
			`Co-authored-by: Copilot <copilot@github\.com>`,
		),
	},
	{
		assistant: schema.Cursor,
		patterns: compileAll(
			`Generated by Cursor`,
			`Co-authored-by: Cursor <cursor@cursor\.com>`,
		),
	},
	{
		assistant: schema.GeneralAI,
		patterns: compileAll(
			`AI-generated`,
			`AI-assisted`,
			`Generated by AI`,
			`AI-authored`,
		),
	},
}

var (
	explanationPattern = regexp.MustCompile(`(?i)explanation|reasoning|thinking`)
	modelPattern       = regexp.MustCompile(`(?i)using Claude (\S+)`)
)

// compileAll compiles case-insensitive versions of the given expressions.
func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+expr))
	}
	return out
}

// Result is the classification of a single commit message.
type Result struct {
	Assistant      schema.Assistant
	HasExplanation bool
	Model          string
}

// AIAssisted reports whether any assistant signature matched.
func (r Result) AIAssisted() bool {
	return r.Assistant != schema.AssistantNone
}

// Identify returns the first assistant whose signature appears in message,
// or schema.AssistantNone when nothing matches.
func Identify(message string) schema.Assistant {
	for _, sig := range signatures {
		for _, p := range sig.patterns {
			if p.MatchString(message) {
				return sig.assistant
			}
		}
	}
	return schema.AssistantNone
}

// Match classifies message. It never fails: an unmatched message is a valid outcome.
func Match(message string) Result {
	res := Result{
		Assistant:      Identify(message),
		HasExplanation: explanationPattern.MatchString(message),
	}
	if res.Assistant == schema.ClaudeCode {
		if m := modelPattern.FindStringSubmatch(message); m != nil {
			res.Model = m[1]
		}
	}
	return res
}

// Apply merges the classification of rec.Message into rec.
func Apply(rec *schema.CommitRecord) {
	res := Match(rec.Message)
	rec.AIAssisted = res.AIAssisted()
	rec.HasExplanation = res.HasExplanation
	rec.Model = res.Model
	rec.AIAssistant = ""
	if rec.AIAssisted {
		rec.AIAssistant = res.Assistant
	}
	rec.AIGeneratedLines = nil
	if rec.LinesAdded != nil {
		generated := 0
		if rec.AIAssisted {
			generated = *rec.LinesAdded
		}
		rec.AIGeneratedLines = &generated
	}
}
