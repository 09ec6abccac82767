package context

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens the way the target model will, so window
// entries, pins, and prior-solution hits carry an accurate TokenCount
// before they ever reach the budget tracker.
type TokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTokenCounter builds a counter for the given tiktoken encoding (e.g.
// "cl100k_base", used by GPT-3.5/GPT-4-era models).
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", encoding, err)
	}
	return &TokenCounter{enc: enc}, nil
}

// Count returns the number of tokens text encodes to.
func (c *TokenCounter) Count(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}
