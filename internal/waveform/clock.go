package waveform

import "math"

// Clock tracks monotonic simulated time for one generator instance.
// Elapsed advances by exactly one sample period per pulled sample; the
// auxiliary timestamps belong to whichever pattern is active and are
// cleared on pattern switch and reset.
type Clock struct {
	Elapsed        float64 // seconds since construction or Reset
	LastBeat       float64 // start time of the current cycle/beat
	LastTransition float64 // last intra-pattern phase change
	NextEvent      float64 // next scheduled irregular event
}

// Advance moves the clock forward one sample period and returns the new
// elapsed time.
func (c *Clock) Advance(samplePeriod float64) float64 {
	c.Elapsed += samplePeriod
	return c.Elapsed
}

// ClearPatternState zeroes the pattern-local timestamps without
// touching elapsed time, so a new pattern starts at a clean boundary.
func (c *Clock) ClearPatternState() {
	c.LastBeat = c.Elapsed
	c.LastTransition = c.Elapsed
	c.NextEvent = 0
}

// Reset restores the clock to construction state.
func (c *Clock) Reset() {
	*c = Clock{}
}

// Phase maps elapsed time into a cycle phase in [0,1).
func Phase(elapsed, cycleLength float64) float64 {
	p := math.Mod(elapsed/cycleLength, 1.0)
	if p < 0 {
		p += 1.0
	}
	// Mod can round to exactly 1.0 for large elapsed values.
	if p >= 1.0 {
		p = 0
	}
	return p
}

// minSpan is substituted when a normalization range collapses so the
// sampling path never divides by zero.
const minSpan = 1e-9

// SafeSpan returns max-min, or a minimal nonzero span when the range
// has collapsed.
func SafeSpan(min, max float64) float64 {
	span := max - min
	if span < minSpan {
		return minSpan
	}
	return span
}
