package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/shopspring/decimal"
)

// APICall describes one call to a model provider.
type APICall struct {
	Model      string
	Provider   schema.Provider
	Function   string
	Request    string // request text used to estimate input tokens when the provider reports none
	AIAssisted bool
}

// APITracker records token usage and cost for model API calls.
type APITracker struct {
	rec       *Recorder
	pricing   map[string]contract.ModelPrice
	tokenizer Tokenizer
}

// NewAPITracker creates a tracker. A nil tokenizer uses tiktoken.
func NewAPITracker(rec *Recorder, pricing map[string]contract.ModelPrice, tokenizer Tokenizer) *APITracker {
	if tokenizer == nil {
		tokenizer = NewTiktokenCounter()
	}
	return &APITracker{rec: rec, pricing: pricing, tokenizer: tokenizer}
}

// Cost returns the dollar cost of a call rounded to 4 places.
// Models missing from the price table cost 0.
func (t *APITracker) Cost(model string, inputTokens, outputTokens int) float64 {
	price, ok := t.pricing[model]
	if !ok {
		return 0
	}
	million := decimal.NewFromInt(1_000_000)
	in := decimal.NewFromInt(int64(inputTokens)).Div(million).Mul(decimal.NewFromFloat(price.Input))
	out := decimal.NewFromInt(int64(outputTokens)).Div(million).Mul(decimal.NewFromFloat(price.Output))
	return in.Add(out).Round(4).InexactFloat64()
}

// EstimateTokens counts tokens for text with the model's tokenizer. Models the
// tokenizer does not know use the character heuristic. Any other tokenizer
// failure is logged before falling back.
func (t *APITracker) EstimateTokens(text, model string) int {
	n, err := t.tokenizer.CountTokens(text, model)
	switch {
	case err == nil:
		return n
	case errors.Is(err, ErrUnsupportedModel):
		return HeuristicTokens(text)
	default:
		contract.LogWarn("Token estimation failed for "+model, err)
		return HeuristicTokens(text)
	}
}

// TrackCall runs fn and appends one api_usage record however it exits.
// The usage fn returns is recorded as-is. Missing input tokens are estimated from
// call.Request and missing output tokens count as 0.
func (t *APITracker) TrackCall(ctx context.Context, call APICall, fn func(context.Context) (TokenUsage, error)) (usage TokenUsage, err error) {
	start := time.Now()

	finish := func(usage TokenUsage, fnErr error) error {
		var in int
		if usage.InputTokens != nil {
			in = *usage.InputTokens
		} else {
			in = t.EstimateTokens(call.Request, call.Model)
		}
		out := schema.Deref(usage.OutputTokens)
		duration := time.Since(start).Seconds()
		cost := t.Cost(call.Model, in, out)
		rec := schema.ObservationRecord{
			FunctionName: call.Function,
			StartTime:    start.UTC(),
			Duration:     &duration,
			Timestamp:    float64(t.rec.now().UnixNano()) / float64(time.Second),
			AIAssisted:   call.AIAssisted,
			Success:      fnErr == nil,
			Model:        call.Model,
			Provider:     string(call.Provider),
			InputTokens:  &in,
			OutputTokens: &out,
			TotalCost:    &cost,
		}
		return t.rec.Append(schema.APIUsageKind, rec)
	}

	defer func() {
		if p := recover(); p != nil {
			if perr := finish(TokenUsage{}, fmt.Errorf("panic: %v", p)); perr != nil {
				contract.LogWarn("Failed to record API call "+call.Function, perr)
			}
			panic(p)
		}
	}()

	usage, err = fn(ctx)
	if perr := finish(usage, err); perr != nil {
		return usage, errors.Join(err, perr)
	}
	return usage, err
}
