package recorder

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// ErrUnsupportedModel is returned by a Tokenizer that has no encoding for a model.
// It is the only failure that falls back to the character heuristic silently.
var ErrUnsupportedModel = errors.New("no tokenizer for model")

// claudeEncoding approximates Claude tokenization.
const claudeEncoding = "cl100k_base"

// Tokenizer counts the tokens a model would see for text.
type Tokenizer interface {
	CountTokens(text, model string) (int, error)
}

// HeuristicTokens estimates one token per four characters.
func HeuristicTokens(text string) int {
	return len(text) / 4
}

// EncodingFor returns the tiktoken encoding name for a model.
func EncodingFor(model string) (string, error) {
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return claudeEncoding, nil
	}
	if enc, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return enc, nil
	}
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return enc, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
}

// TiktokenCounter is the default Tokenizer. Encoders are loaded once per encoding.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewTiktokenCounter returns an empty counter.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{encoders: make(map[string]*tiktoken.Tiktoken)}
}

// CountTokens implements Tokenizer.
func (c *TiktokenCounter) CountTokens(text, model string) (int, error) {
	name, err := EncodingFor(model)
	if err != nil {
		return 0, err
	}
	enc, err := c.encoder(name)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func (c *TiktokenCounter) encoder(name string) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encoders[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", name, err)
	}
	c.encoders[name] = enc
	return enc, nil
}
