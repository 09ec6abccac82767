package context

import (
	"errors"
	"sync"
	"time"
)

// ErrPinTooLarge is returned when a single pin's token count exceeds the
// manager's cap outright — it can never be accommodated by evicting
// other pins.
var ErrPinTooLarge = errors.New("context: pin exceeds maxPinnedTokens cap")

// PinManager holds the set of pins, capped at maxTokens total. Adding a
// pin that would exceed the cap evicts the lowest-priority existing pin
// (lowest Priority value first, then oldest PinnedAt) until it fits.
type PinManager struct {
	mu        sync.Mutex
	maxTokens int
	pins      []Pin
}

// NewPinManager constructs a PinManager capped at maxTokens (spec
// default 2000).
func NewPinManager(maxTokens int) *PinManager {
	return &PinManager{maxTokens: maxTokens}
}

// Add inserts pin, evicting lowest-priority pins as needed to stay under
// the cap. Returns ErrPinTooLarge if pin alone exceeds the cap.
func (m *PinManager) Add(pin Pin) error {
	if pin.TokenCount > m.maxTokens {
		return ErrPinTooLarge
	}
	if pin.PinnedAt.IsZero() {
		pin.PinnedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for m.totalTokensLocked()+pin.TokenCount > m.maxTokens && len(m.pins) > 0 {
		evictIdx := m.lowestPriorityIndexLocked()
		m.pins = append(m.pins[:evictIdx], m.pins[evictIdx+1:]...)
	}

	m.pins = append(m.pins, pin)
	return nil
}

func (m *PinManager) totalTokensLocked() int {
	total := 0
	for _, p := range m.pins {
		total += p.TokenCount
	}
	return total
}

func (m *PinManager) lowestPriorityIndexLocked() int {
	idx := 0
	for i, p := range m.pins[1:] {
		candidate := i + 1
		if p.Priority < m.pins[idx].Priority ||
			(p.Priority == m.pins[idx].Priority && p.PinnedAt.Before(m.pins[idx].PinnedAt)) {
			idx = candidate
		}
	}
	return idx
}

// Pins returns a snapshot of all current pins.
func (m *PinManager) Pins() []Pin {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Pin, len(m.pins))
	copy(out, m.pins)
	return out
}

// TotalTokens returns the current sum of pinned token counts.
func (m *PinManager) TotalTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalTokensLocked()
}
