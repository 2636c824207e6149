package respiratory

import (
	"math"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

// Generator synthesizes the normalized breathing-effort signal.
// Positive values are inspiration, negative expiration is not modeled;
// the signal rests at the configured baseline between breaths.
type Generator struct {
	logger *zap.Logger
	noise  waveform.Noise

	params  waveform.Parameters
	pattern Pattern
	opts    Options
	clock   waveform.Clock

	// Cycle-local state, cleared on pattern switch and reset.
	cycleLen   float64 // current breath cycle length
	cycleAmp   float64 // current breath amplitude factor
	apneaUntil float64 // ataxic apnea episode end
	effortOn   bool    // assisted: patient effort active this cycle
	gaspStart  float64 // agonal: current gasp onset
	gaspDur    float64
	gaspAmp    float64
}

// DefaultParameters is the adult-normal effort configuration: 14
// breaths/min with a 0.4:0.6 inspiration:expiration split.
func DefaultParameters() waveform.Parameters {
	return waveform.Parameters{
		SampleRate: 50,
		Rate:       14,
		Amplitude:  1.0,
		NoiseLevel: 0.01,
		IERatio:    0.4,
	}
}

// New creates a generator breathing normally.
func New(logger *zap.Logger, noise waveform.Noise) *Generator {
	g := &Generator{
		logger:  logger,
		noise:   noise,
		params:  DefaultParameters(),
		pattern: PatternNormal,
	}
	g.clearPatternState()
	return g
}

func (g *Generator) Params() waveform.Parameters { return g.params }
func (g *Generator) Pattern() Pattern            { return g.pattern }
func (g *Generator) PatternOptions() Options     { return g.opts }

// UpdateParams merges the set fields; non-positive rate or sample rate
// is rejected at this boundary.
func (g *Generator) UpdateParams(p waveform.Partial) error {
	if err := p.Merge(&g.params); err != nil {
		return err
	}
	if p.Rate != nil {
		g.cycleLen = 0
	}
	return nil
}

// SetPattern switches the breathing pattern. Unknown tags are a logged
// no-op keeping the prior pattern.
func (g *Generator) SetPattern(tag Pattern, opts Options) {
	if !knownPatterns[tag] {
		g.logger.Warn("Unknown respiratory pattern, keeping current",
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
	g.applyEntryOverrides(tag)
}

func (g *Generator) resolveOptions(tag Pattern, opts Options) Options {
	warn := func() {
		if opts != nil {
			g.logger.Warn("Pattern options type mismatch, using defaults",
				zap.String("pattern", string(tag)))
		}
	}
	switch tag {
	case PatternCheyneStokes:
		if o, ok := opts.(CheyneStokesOptions); ok && o.CrescendoDuration > 0 && o.ApneaDuration > 0 {
			return o
		}
		warn()
		return defaultCheyneStokes()
	case PatternBiot:
		if o, ok := opts.(BiotOptions); ok && o.BreathCount > 0 && o.ApneaDuration > 0 {
			return o
		}
		warn()
		return defaultBiot()
	case PatternObstructive:
		if o, ok := opts.(ObstructiveOptions); ok {
			return o
		}
		warn()
		return defaultObstructive()
	case PatternAgonal:
		if o, ok := opts.(AgonalOptions); ok && o.MinInterval > 0 && o.MaxInterval > o.MinInterval {
			return o
		}
		warn()
		return defaultAgonal()
	case PatternAtaxic:
		if o, ok := opts.(AtaxicOptions); ok {
			return o
		}
		warn()
		return defaultAtaxic()
	case PatternAssisted:
		if o, ok := opts.(AssistedOptions); ok && o.MachineRate > 0 {
			return o
		}
		warn()
		return defaultAssisted()
	}
	return nil
}

// applyEntryOverrides adjusts parameters that the pattern itself
// implies; everything else persists across switches.
func (g *Generator) applyEntryOverrides(tag Pattern) {
	switch tag {
	case PatternBradypnea:
		if g.params.Rate > 10 {
			g.params.Rate = 8
		}
	case PatternTachypnea:
		if g.params.Rate < 22 {
			g.params.Rate = 24
		}
	case PatternKussmaul:
		// Deep, fast, with the I:E split pushed toward 1:1.
		g.params.Rate = math.Max(g.params.Rate, 28)
		g.params.Amplitude = 1.4
		g.params.IERatio = 0.5
	case PatternObstructive:
		g.params.IERatio = 0.3
	case PatternAssisted:
		g.params.Rate = g.opts.(AssistedOptions).MachineRate
	}
}

func (g *Generator) clearPatternState() {
	g.cycleLen = 0
	g.cycleAmp = 1
	g.apneaUntil = 0
	g.effortOn = false
	g.gaspStart = -1
	g.gaspDur = 0
	g.gaspAmp = 0
	g.clock.ClearPatternState()
}

// Reset restores clock and counters and reverts to normal breathing;
// configured parameters are kept.
func (g *Generator) Reset() {
	g.clock.Reset()
	g.pattern = PatternNormal
	g.opts = nil
	g.clearPatternState()
}

// Phase returns the position within the current breath cycle, [0,1).
func (g *Generator) Phase() float64 {
	cl := g.cycleLen
	if cl <= 0 {
		cl = g.params.CycleLength()
	}
	return waveform.Phase(g.clock.Elapsed-g.clock.LastBeat, cl)
}

// NextValue advances one sample period and returns one effort sample.
func (g *Generator) NextValue() float64 {
	g.clock.Advance(g.params.SamplePeriod())

	var v float64
	switch g.pattern {
	case PatternApnea:
		v = 0
	case PatternCheyneStokes:
		v = g.sampleCheyneStokes()
	case PatternBiot:
		v = g.sampleBiot()
	case PatternObstructive:
		v = g.sampleObstructive()
	case PatternAgonal:
		v = g.sampleAgonal()
	case PatternAtaxic:
		v = g.sampleAtaxic()
	case PatternAssisted:
		v = g.sampleAssisted()
	case PatternParadoxical:
		v = -g.sampleCyclic(g.params.Amplitude)
	default: // normal, bradypnea, tachypnea, kussmaul
		v = g.sampleCyclic(g.params.Amplitude)
	}

	return v + g.params.Baseline + waveform.Centered(g.noise, g.params.NoiseLevel)
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

// breathShape maps a cycle phase to the rising/falling half-sine
// effort curve split at the inspiration fraction.
func breathShape(phase, ieFraction, amp float64) float64 {
	if phase < ieFraction {
		u := phase / waveform.SafeSpan(0, ieFraction)
		return amp * math.Sin(0.5*math.Pi*u)
	}
	u := (phase - ieFraction) / waveform.SafeSpan(ieFraction, 1)
	return amp * math.Cos(0.5*math.Pi*u)
}

// advanceCycle rolls the breath scheduler forward and redraws
// per-cycle factors when a new breath starts. Returns the phase within
// the current cycle.
func (g *Generator) advanceCycle(baseLen float64) float64 {
	if g.cycleLen <= 0 {
		g.cycleLen = baseLen
		g.startCycle()
	}
	for g.clock.Elapsed-g.clock.LastBeat >= g.cycleLen {
		g.clock.LastBeat += g.cycleLen
		g.cycleLen = baseLen
		g.startCycle()
	}
	return (g.clock.Elapsed - g.clock.LastBeat) / g.cycleLen
}

// startCycle draws the pattern's per-breath randomness.
func (g *Generator) startCycle() {
	switch g.pattern {
	case PatternAtaxic:
		o := g.opts.(AtaxicOptions)
		g.cycleLen *= 1 + o.Variability*(2*g.noise.Float64()-1)*0.6
		g.cycleAmp = 1 + o.Variability*(2*g.noise.Float64()-1)*0.5
		// Stochastic apnea episodes of 5-15 s.
		if g.clock.Elapsed >= g.apneaUntil && g.noise.Float64() < 0.15 {
			g.apneaUntil = g.clock.Elapsed + 5 + 10*g.noise.Float64()
		}
	case PatternAssisted:
		o := g.opts.(AssistedOptions)
		g.effortOn = g.noise.Float64() < o.AsynchronyProbability
	default:
		g.cycleAmp = 1
	}
}

func (g *Generator) sampleCyclic(amp float64) float64 {
	phase := g.advanceCycle(g.params.CycleLength())
	return breathShape(phase, g.params.IERatio, amp)
}

// sampleCheyneStokes overlays a linear crescendo-decrescendo envelope
// over a breathing segment, then holds an apnea segment.
func (g *Generator) sampleCheyneStokes() float64 {
	o := g.opts.(CheyneStokesOptions)
	period := o.CrescendoDuration + o.ApneaDuration
	u := math.Mod(g.clock.Elapsed-g.clock.LastTransition, period)
	if u >= o.CrescendoDuration {
		return 0 // apnea segment
	}
	// Triangular envelope peaking mid-segment.
	env := 1 - math.Abs(2*u/o.CrescendoDuration-1)
	phase := g.advanceCycle(g.params.CycleLength())
	return env * breathShape(phase, g.params.IERatio, g.params.Amplitude)
}

// sampleBiot alternates clusters of full-amplitude breaths with flat
// apnea, no envelope shaping.
func (g *Generator) sampleBiot() float64 {
	o := g.opts.(BiotOptions)
	breathing := float64(o.BreathCount) * g.params.CycleLength()
	period := breathing + o.ApneaDuration
	u := math.Mod(g.clock.Elapsed-g.clock.LastTransition, period)
	if u >= breathing {
		return 0
	}
	phase := g.advanceCycle(g.params.CycleLength())
	return breathShape(phase, g.params.IERatio, g.params.Amplitude)
}

// sampleObstructive reduces inspiratory gain with severity and
// replaces the expiratory limb with a slow exponential decay.
func (g *Generator) sampleObstructive() float64 {
	o := g.opts.(ObstructiveOptions)
	phase := g.advanceCycle(g.params.CycleLength())
	amp := g.params.Amplitude * (1 - 0.5*o.Severity)

	ie := g.params.IERatio
	if phase < ie {
		u := phase / waveform.SafeSpan(0, ie)
		return amp * math.Sin(0.5*math.Pi*u)
	}
	// Elongated expiration: decay stretched by severity.
	te := (phase - ie) * g.cycleLen
	tau := (1 - ie) * g.cycleLen * (0.25 + 0.5*o.Severity)
	return amp * math.Exp(-te/waveform.SafeSpan(0, tau))
}

// sampleAgonal fires isolated large gasps at random 20-60 s intervals
// and stays near-flatline otherwise.
func (g *Generator) sampleAgonal() float64 {
	o := g.opts.(AgonalOptions)
	if g.clock.NextEvent == 0 {
		g.scheduleGasp(o)
	}
	if g.gaspStart < 0 && g.clock.Elapsed >= g.clock.NextEvent {
		g.gaspStart = g.clock.Elapsed
		g.gaspDur = 1.0 + g.noise.Float64() // <= 2 s
		g.gaspAmp = g.params.Amplitude * (1.2 + 0.5*g.noise.Float64())
		g.scheduleGasp(o)
	}
	if g.gaspStart >= 0 {
		t := g.clock.Elapsed - g.gaspStart
		if t < g.gaspDur {
			return g.gaspAmp * math.Sin(math.Pi*t/g.gaspDur)
		}
		g.gaspStart = -1
	}
	return 0
}

func (g *Generator) scheduleGasp(o AgonalOptions) {
	span := o.MaxInterval - o.MinInterval
	g.clock.NextEvent = g.clock.Elapsed + o.MinInterval + span*g.noise.Float64()
}

// sampleAtaxic breathes with per-cycle rate/amplitude perturbation and
// stochastic apnea episodes drawn in startCycle.
func (g *Generator) sampleAtaxic() float64 {
	phase := g.advanceCycle(g.params.CycleLength())
	if g.clock.Elapsed < g.apneaUntil {
		return 0
	}
	return breathShape(phase, g.params.IERatio, g.params.Amplitude*g.cycleAmp)
}

// sampleAssisted delivers machine breaths at the set rate and, on
// asynchronous cycles, overlays an independent patient-effort sine.
func (g *Generator) sampleAssisted() float64 {
	o := g.opts.(AssistedOptions)
	phase := g.advanceCycle(60.0 / o.MachineRate)
	v := breathShape(phase, g.params.IERatio, g.params.Amplitude)
	if g.effortOn && o.TriggerRate > 0 {
		effort := math.Sin(2 * math.Pi * o.TriggerRate / 60.0 * g.clock.Elapsed)
		if effort > 0 {
			v += 0.25 * g.params.Amplitude * effort
		}
	}
	return v
}
