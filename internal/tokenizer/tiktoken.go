package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding used by the OpenAI embedding and chat models.
const DefaultEncoding = "cl100k_base"

// Counter counts BPE tokens.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter loads the named encoding. The first call may download the BPE
// ranks unless TIKTOKEN_CACHE_DIR points at a warm cache.
func NewCounter(encodingName string) (*Counter, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &Counter{encoding: encoding}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if c == nil || c.encoding == nil || text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}
