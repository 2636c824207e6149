package capnography

import (
	"math"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

// Expiratory sub-phase split: the plateau takes 70% of expiration,
// the upstroke and downstroke split the remainder 1:2.
const (
	upstrokeFrac   = 0.10
	plateauFrac    = 0.70
	downstrokeFrac = 0.20
)

// Generator synthesizes the exhaled-CO2 trace in mmHg. Amplitude is
// the configured ETCO2; a low-cardiac-output penalty scales it
// independently of the active pattern.
type Generator struct {
	logger *zap.Logger
	noise  waveform.Noise

	params  waveform.Parameters
	pattern Pattern
	opts    Options
	clock   waveform.Clock

	coScale   float64 // cardiac-output ETCO2 penalty, (0,1]
	intubated bool    // open-circuit sampling carries more noise

	// Pattern-local state.
	phase       BreathPhase
	breathCount int // breaths since pattern entry
}

// DefaultParameters is the adult-normal capnogram configuration.
func DefaultParameters() waveform.Parameters {
	return waveform.Parameters{
		SampleRate: 50,
		Rate:       14,
		Amplitude:  38, // ETCO2 mmHg
		NoiseLevel: 0.01,
		IERatio:    0.4,
	}
}

// New creates a generator producing a normal capnogram.
func New(logger *zap.Logger, noise waveform.Noise) *Generator {
	g := &Generator{
		logger:  logger,
		noise:   noise,
		params:  DefaultParameters(),
		pattern: PatternNormal,
		coScale: 1,
	}
	g.clearPatternState()
	return g
}

func (g *Generator) Params() waveform.Parameters { return g.params }
func (g *Generator) Pattern() Pattern            { return g.pattern }
func (g *Generator) PatternOptions() Options     { return g.opts }

// BreathPhase reports the intra-breath state after the last sample.
func (g *Generator) BreathPhase() BreathPhase { return g.phase }

// UpdateParams merges the set fields; non-positive rate or sample rate
// is rejected at this boundary.
func (g *Generator) UpdateParams(p waveform.Partial) error {
	return p.Merge(&g.params)
}

// SetPattern switches the capnogram pattern. Unknown tags are a
// logged no-op keeping the prior pattern.
func (g *Generator) SetPattern(tag Pattern, opts Options) {
	if !knownPatterns[tag] {
		g.logger.Warn("Unknown capnography pattern, keeping current",
			zap.String("requested", string(tag)),
			zap.String("active", string(g.pattern)))
		return
	}
	resolved := g.resolveOptions(tag, opts)
	if tag == g.pattern {
		g.opts = resolved
		return
	}
	g.pattern = tag
	g.opts = resolved
	g.clearPatternState()
}

func (g *Generator) resolveOptions(tag Pattern, opts Options) Options {
	warn := func() {
		if opts != nil {
			g.logger.Warn("Pattern options type mismatch, using defaults",
				zap.String("pattern", string(tag)))
		}
	}
	switch tag {
	case PatternObstructive:
		if o, ok := opts.(ObstructiveOptions); ok {
			return o
		}
		warn()
		return defaultObstructive()
	case PatternRebreathing:
		if o, ok := opts.(RebreathingOptions); ok && o.BaselineFraction > 0 && o.BaselineFraction < 1 {
			return o
		}
		warn()
		return defaultRebreathing()
	case PatternAirwayLeak:
		if o, ok := opts.(LeakOptions); ok {
			return o
		}
		warn()
		return defaultLeak()
	case PatternEsophageal:
		if o, ok := opts.(EsophagealOptions); ok && o.SpikeBreaths > 0 {
			return o
		}
		warn()
		return defaultEsophageal()
	case PatternCardiacOsc:
		if o, ok := opts.(CardiacOscOptions); ok && o.HeartRate > 0 {
			return o
		}
		warn()
		return defaultCardiacOsc()
	case PatternCurareCleft:
		if o, ok := opts.(CurareCleftOptions); ok && o.Depth > 0 && o.Depth < 1 {
			return o
		}
		warn()
		return defaultCurareCleft()
	}
	return nil
}

func (g *Generator) clearPatternState() {
	g.phase = PhaseInspiration
	g.breathCount = 0
	g.clock.ClearPatternState()
}

// Reset restores clock and counters and reverts to the normal
// pattern; configured parameters and the CO penalty derived from the
// last snapshot are kept.
func (g *Generator) Reset() {
	g.clock.Reset()
	g.pattern = PatternNormal
	g.opts = nil
	g.clearPatternState()
}

// Phase returns the position within the current breath cycle, [0,1).
func (g *Generator) Phase() float64 {
	return waveform.Phase(g.clock.Elapsed-g.clock.LastBeat, g.params.CycleLength())
}

// effectiveETCO2 is the configured ETCO2 after the cardiac-output
// penalty and per-pattern scaling.
func (g *Generator) effectiveETCO2() float64 {
	e := g.params.Amplitude * g.coScale
	switch g.pattern {
	case PatternHypoventilation:
		e *= 1.3
	case PatternHyperventilation:
		e *= 0.7
	}
	return e
}

// NextValue advances one sample period, steps the 4-phase breath
// machine, and returns one CO2 sample in mmHg.
func (g *Generator) NextValue() float64 {
	g.clock.Advance(g.params.SamplePeriod())

	cycle := g.params.CycleLength()
	for g.clock.Elapsed-g.clock.LastBeat >= cycle {
		g.clock.LastBeat += cycle
		g.breathCount++
	}
	t := g.clock.Elapsed - g.clock.LastBeat
	g.step(t, cycle)

	v := g.patternValue(t, cycle)

	noiseAmp := g.params.NoiseLevel * g.effectiveETCO2()
	if !g.intubated {
		noiseAmp *= 1.5
	}
	if g.pattern == PatternAirwayLeak {
		noiseAmp *= 2
	}
	v += g.params.Baseline + waveform.Centered(g.noise, noiseAmp)
	if v < 0 {
		v = 0
	}
	return v
}

// GenerateWaveform pulls floor(seconds*sampleRate) consecutive samples.
func (g *Generator) GenerateWaveform(seconds float64) []float64 {
	n := int(math.Floor(seconds * g.params.SampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = g.NextValue()
	}
	return out
}

// step advances the intra-breath state machine, recording the
// transition time.
func (g *Generator) step(t, cycle float64) {
	ti := g.params.IERatio * cycle
	te := cycle - ti

	var next BreathPhase
	switch {
	case t < ti:
		next = PhaseInspiration
	case t < ti+upstrokeFrac*te:
		next = PhaseUpstroke
	case t < ti+(upstrokeFrac+plateauFrac)*te:
		next = PhasePlateau
	default:
		next = PhaseDownstroke
	}
	if next != g.phase {
		g.phase = next
		g.clock.LastTransition = g.clock.Elapsed
	}
}

// patternValue is the noiseless trace value at t within the cycle.
func (g *Generator) patternValue(t, cycle float64) float64 {
	etco2 := g.effectiveETCO2()
	ti := g.params.IERatio * cycle
	te := cycle - ti

	switch g.pattern {
	case PatternEsophageal:
		return g.esophagealValue(t, ti, te, etco2)
	case PatternObstructive:
		return g.obstructiveValue(t, ti, te, etco2)
	}

	upDur := upstrokeFrac * te
	platDur := plateauFrac * te
	downDur := downstrokeFrac * te

	insBase := 0.0
	if g.pattern == PatternRebreathing {
		insBase = g.opts.(RebreathingOptions).BaselineFraction * etco2
	}

	if t < ti {
		return insBase
	}

	peak := etco2
	platStart := 0.95 * peak
	if g.pattern == PatternAirwayLeak {
		o := g.opts.(LeakOptions)
		peak *= 1 - 0.4*o.Severity
		platStart = 0.95 * peak
	}

	teT := t - ti
	switch {
	case teT < upDur:
		return insBase + waveform.RaisedCosine(teT, 0, upDur, platStart-insBase)

	case teT < upDur+platDur:
		u := (teT - upDur) / waveform.SafeSpan(0, platDur)
		var v float64
		if g.pattern == PatternAirwayLeak {
			// Plateau drifts downward instead of the normal slight rise.
			v = platStart - (0.15*peak)*u
		} else {
			// Slight upward slope; the plateau ends at the effective ETCO2.
			v = platStart + (peak-platStart)*u
		}
		switch g.pattern {
		case PatternCardiacOsc:
			o := g.opts.(CardiacOscOptions)
			v += 0.04 * peak * math.Sin(2*math.Pi*o.HeartRate/60.0*g.clock.Elapsed)
		case PatternCurareCleft:
			o := g.opts.(CurareCleftOptions)
			v -= waveform.Gaussian(u, 0.5, 0.08, o.Depth*peak)
		}
		return v

	default:
		downT := teT - upDur - platDur
		end := peak
		if g.pattern == PatternAirwayLeak {
			end = platStart - 0.15*peak
		}
		return insBase + (end-insBase)*(1-waveform.RaisedCosine(downT, 0, downDur, 1))
	}
}

// obstructiveValue is the shark fin: a continued exponential rise with
// no true plateau, steeper fall at expiration end.
func (g *Generator) obstructiveValue(t, ti, te, etco2 float64) float64 {
	if t < ti {
		return 0
	}
	o := g.opts.(ObstructiveOptions)
	teT := t - ti
	riseDur := (1 - downstrokeFrac) * te
	if teT < riseDur {
		// Severity slows the rise so the curve never flattens.
		tau := riseDur * (0.4 + 0.6*o.Severity)
		peak := etco2 * (1 - 0.2*o.Severity)
		return peak * (1 - math.Exp(-teT/waveform.SafeSpan(0, tau)))
	}
	// Expiration end falls from wherever the rise got to.
	tau := riseDur * (0.4 + 0.6*o.Severity)
	peak := etco2 * (1 - 0.2*o.Severity)
	reached := peak * (1 - math.Exp(-riseDur/waveform.SafeSpan(0, tau)))
	downT := teT - riseDur
	return reached * (1 - waveform.RaisedCosine(downT, 0, downstrokeFrac*te, 1))
}

// esophagealValue is near-zero with a brief decaying spike on only the
// first few expirations after entry.
func (g *Generator) esophagealValue(t, ti, te, etco2 float64) float64 {
	o := g.opts.(EsophagealOptions)
	if g.breathCount >= o.SpikeBreaths || t < ti {
		return 0
	}
	// Each successive spike is smaller.
	amp := 0.25 * etco2 * math.Pow(0.5, float64(g.breathCount))
	return waveform.ExpDecay(t, ti, 0.15*te, amp)
}
