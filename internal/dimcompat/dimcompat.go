// Package dimcompat transparently upgrades legacy 768-dim embeddings to
// the canonical 1536-dim space on read, so older stored vectors keep
// working after the canonical dimension changed.
package dimcompat

import (
	"fmt"
	"sync"
	"time"

	"github.com/txc0ld/godagent/internal/vectorindex"
)

// Stats tracks conversion activity across the lifetime of a Converter.
type Stats struct {
	TotalProcessed int
	ConvertedCount int
	NativeCount    int
	Sources        map[string]int // source tag -> count of vectors processed from it (canonical or legacy), when given
}

// ConversionRatio returns ConvertedCount/TotalProcessed, or 0 if nothing
// has been processed yet.
func (s Stats) ConversionRatio() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.ConvertedCount) / float64(s.TotalProcessed)
}

// Converter upgrades legacy-dimension vectors to the canonical dimension,
// rate-limits the warnings it emits about doing so, and accumulates
// Stats for migration-recommendation purposes.
type Converter struct {
	canonicalDim int
	legacyDim    int

	maxWarningsPerSession int
	minWarningInterval    time.Duration

	mu             sync.Mutex
	stats          Stats
	warningsIssued int
	lastWarningAt  time.Time
}

// NewConverter constructs a Converter for the given canonical/legacy
// dimension pair. maxWarningsPerSession <= 0 disables the per-session cap
// (rate-limiting by interval still applies).
func NewConverter(canonicalDim, legacyDim, maxWarningsPerSession int) *Converter {
	return &Converter{
		canonicalDim:          canonicalDim,
		legacyDim:             legacyDim,
		maxWarningsPerSession: maxWarningsPerSession,
		minWarningInterval:    time.Second,
		stats:                 Stats{Sources: make(map[string]int)},
	}
}

// Convert inspects data's dimension and returns a canonical-dimension
// vector: passed through unchanged if already canonical, zero-padded and
// L2-renormalized if legacy, or an error for anything else. source is an
// optional free-form tag (e.g. the originating collection name) recorded
// in Stats.Sources.
func (c *Converter) Convert(data []float32, source string) (converted []float32, warning string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalProcessed++
	if source != "" {
		c.stats.Sources[source]++
	}

	switch len(data) {
	case c.canonicalDim:
		c.stats.NativeCount++
		return data, "", nil

	case c.legacyDim:
		c.stats.ConvertedCount++
		padded := make([]float32, c.canonicalDim)
		copy(padded, data)
		normalized := vectorindex.Normalize(padded)

		warning = c.maybeWarnLocked(source)
		return normalized, warning, nil

	default:
		return nil, "", fmt.Errorf("unsupported vector dimension %d (want %d or legacy %d)", len(data), c.canonicalDim, c.legacyDim)
	}
}

// maybeWarnLocked returns a non-empty warning message if this conversion
// should surface one, honoring both the per-second rate limit and the
// per-session cap. Caller must hold c.mu.
func (c *Converter) maybeWarnLocked(source string) string {
	if c.maxWarningsPerSession > 0 && c.warningsIssued >= c.maxWarningsPerSession {
		return ""
	}
	if !c.lastWarningAt.IsZero() && time.Since(c.lastWarningAt) < c.minWarningInterval {
		return ""
	}

	c.warningsIssued++
	c.lastWarningAt = time.Now()

	if source != "" {
		return fmt.Sprintf("converted legacy %d-dim vector from %q to canonical %d-dim", c.legacyDim, source, c.canonicalDim)
	}
	return fmt.Sprintf("converted legacy %d-dim vector to canonical %d-dim", c.legacyDim, c.canonicalDim)
}

// Stats returns a snapshot of the conversion counters.
func (c *Converter) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	sourcesCopy := make(map[string]int, len(c.stats.Sources))
	for k, v := range c.stats.Sources {
		sourcesCopy[k] = v
	}
	return Stats{
		TotalProcessed: c.stats.TotalProcessed,
		ConvertedCount: c.stats.ConvertedCount,
		NativeCount:    c.stats.NativeCount,
		Sources:        sourcesCopy,
	}
}

// MigrationRecommended reports whether the conversion ratio over the
// observed sample exceeds threshold, once the sample is large enough to
// be meaningful (minSample, default usage 100).
func (c *Converter) MigrationRecommended(threshold float64, minSample int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stats.TotalProcessed < minSample {
		return false
	}
	return c.stats.ConversionRatio() > threshold
}
