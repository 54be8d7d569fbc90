package recorder

import (
	"encoding/json"
	"fmt"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/sashabaranov/go-openai"
)

// TokenUsage is what a provider reported for one call. Nil fields were not reported.
type TokenUsage struct {
	InputTokens  *int
	OutputTokens *int
}

// AnthropicUsage is the usage object of an Anthropic messages response.
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// UsageFromAnthropic converts an Anthropic usage object. A nil usage reports nothing.
func UsageFromAnthropic(u *AnthropicUsage) TokenUsage {
	if u == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		InputTokens:  schema.Ptr(u.InputTokens),
		OutputTokens: schema.Ptr(u.OutputTokens),
	}
}

// UsageFromOpenAI converts an OpenAI usage object.
func UsageFromOpenAI(u openai.Usage) TokenUsage {
	return TokenUsage{
		InputTokens:  schema.Ptr(u.PromptTokens),
		OutputTokens: schema.Ptr(u.CompletionTokens),
	}
}

// UsageFromResponse extracts usage from a raw provider response body.
// Unknown providers and bodies without a usage object report nothing.
func UsageFromResponse(provider schema.Provider, body []byte) (TokenUsage, error) {
	switch provider {
	case schema.AnthropicProvider:
		var resp struct {
			Usage *AnthropicUsage `json:"usage"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return TokenUsage{}, fmt.Errorf("failed to decode anthropic response: %w", err)
		}
		return UsageFromAnthropic(resp.Usage), nil
	case schema.OpenAIProvider:
		var resp struct {
			Usage *openai.Usage `json:"usage"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return TokenUsage{}, fmt.Errorf("failed to decode openai response: %w", err)
		}
		if resp.Usage == nil {
			return TokenUsage{}, nil
		}
		return UsageFromOpenAI(*resp.Usage), nil
	default:
		return TokenUsage{}, nil
	}
}
