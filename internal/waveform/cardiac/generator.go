package cardiac

import (
	"math"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

// Generator synthesizes a continuous ECG voltage stream (mV) from the
// active rhythm and parameters. Instances are single-owner: the caller
// serializes NextValue.
type Generator struct {
	logger *zap.Logger
	noise  waveform.Noise

	params  waveform.Parameters
	rhythm  Rhythm
	opts    Options
	overlay Overlay
	clock   waveform.Clock

	// Beat scheduler state, cleared on rhythm switch and reset.
	beatCount   int
	currentRR   float64
	beat        Morphology
	beatDropped bool
	pauseNext   bool
	nextEctopic int
	vfAmp       float64
	vfFreq      float64
}

// DefaultParameters is the adult-normal ECG configuration.
func DefaultParameters() waveform.Parameters {
	return waveform.Parameters{
		SampleRate: 250,
		Rate:       72,
		Amplitude:  1.0, // mV at the R wave
		NoiseLevel: 0.02,
	}
}

// New creates a generator in normal sinus rhythm. The noise source is
// per-instance and seedable so runs are reproducible.
func New(logger *zap.Logger, noise waveform.Noise) *Generator {
	g := &Generator{
		logger:  logger,
		noise:   noise,
		params:  DefaultParameters(),
		rhythm:  RhythmSinus,
		overlay: neutralOverlay(),
	}
	g.clearPatternState()
	return g
}

// Params returns a copy of the current configuration.
func (g *Generator) Params() waveform.Parameters { return g.params }

// Rhythm returns the active rhythm tag.
func (g *Generator) Rhythm() Rhythm { return g.rhythm }

// RhythmOptions returns the active rhythm's options (nil for rhythms
// without settings).
func (g *Generator) RhythmOptions() Options { return g.opts }

// UpdateParams merges the set fields and re-derives cycle timing.
// Non-positive rate or sample rate is rejected here so the sampling
// path never fails.
func (g *Generator) UpdateParams(p waveform.Partial) error {
	if err := p.Merge(&g.params); err != nil {
		return err
	}
	if p.Rate != nil {
		// Force the scheduler to pick up the new RR on the next beat.
		g.currentRR = 0
	}
	return nil
}

// SetRhythm switches the active rhythm. An unknown tag is a logged
// no-op; the prior rhythm stays active. Pattern-local counters are
// cleared so the new rhythm starts at a clean phase boundary.
func (g *Generator) SetRhythm(tag Rhythm, opts Options) {
	if !knownRhythms[tag] {
		g.logger.Warn("Unknown cardiac rhythm, keeping current",
			zap.String("requested", string(tag)),
			zap.String("active", string(g.rhythm)))
		return
	}
	resolved := g.resolveOptions(tag, opts)
	if tag == g.rhythm {
		g.opts = resolved
		return
	}
	g.rhythm = tag
	g.opts = resolved
	g.clearPatternState()
	g.applyEntryOverrides(tag)
}

// resolveOptions validates the options variant against the tag,
// substituting defaults on mismatch.
func (g *Generator) resolveOptions(tag Rhythm, opts Options) Options {
	fallback := func(want string) Options {
		if opts != nil {
			g.logger.Warn("Rhythm options type mismatch, using defaults",
				zap.String("rhythm", string(tag)),
				zap.String("expected", want))
		}
		switch tag {
		case RhythmAFib:
			return defaultAFib()
		case RhythmAFlutter:
			return defaultAFlutter()
		case RhythmVTach:
			return defaultVTach()
		case RhythmWenckebach:
			return defaultWenckebach()
		case RhythmMobitz2:
			return defaultMobitz2()
		case RhythmCompleteBlock:
			return defaultCompleteBlock()
		case RhythmPVC, RhythmPAC:
			return defaultEctopic()
		case RhythmPaced:
			return defaultPaced()
		default:
			return nil
		}
	}

	switch tag {
	case RhythmAFib:
		if o, ok := opts.(AFibOptions); ok {
			return o
		}
	case RhythmAFlutter:
		if o, ok := opts.(AFlutterOptions); ok && o.AtrialRate > 0 && o.ConductionRatio > 0 {
			return o
		}
	case RhythmVTach:
		if o, ok := opts.(VTachOptions); ok && o.Rate > 0 {
			return o
		}
	case RhythmWenckebach:
		if o, ok := opts.(WenckebachOptions); ok && o.MaxCount > 0 && o.PRIncrement > 0 {
			return o
		}
	case RhythmMobitz2:
		if o, ok := opts.(Mobitz2Options); ok && o.ConductionRatio > 1 {
			return o
		}
	case RhythmCompleteBlock:
		if o, ok := opts.(CompleteBlockOptions); ok && o.AtrialRate > 0 && o.EscapeRate > 0 {
			return o
		}
	case RhythmPVC, RhythmPAC:
		if o, ok := opts.(EctopicOptions); ok {
			return o
		}
	case RhythmPaced:
		if o, ok := opts.(PacedOptions); ok && o.Rate > 0 {
			return o
		}
	default:
		return nil
	}
	return fallback(string(tag) + " options")
}

// applyEntryOverrides adjusts the rate when the rhythm itself implies
// one; all other configured parameters persist across switches.
func (g *Generator) applyEntryOverrides(tag Rhythm) {
	switch tag {
	case RhythmSinusBrady:
		if g.params.Rate > 50 {
			g.params.Rate = 45
		}
	case RhythmSinusTachy:
		if g.params.Rate < 120 {
			g.params.Rate = 130
		}
	case RhythmVTach:
		g.params.Rate = g.opts.(VTachOptions).Rate
	case RhythmPaced:
		g.params.Rate = g.opts.(PacedOptions).Rate
	}
}

func (g *Generator) clearPatternState() {
	g.beatCount = 0
	g.currentRR = 0
	g.beatDropped = false
	g.pauseNext = false
	g.nextEctopic = 0
	g.vfAmp = 0
	g.vfFreq = 0
	g.clock.ClearPatternState()
}

// Reset restores the clock and pattern-local counters and reverts to
// normal sinus rhythm. Configured parameters are kept.
func (g *Generator) Reset() {
	g.clock.Reset()
	g.rhythm = RhythmSinus
	g.opts = nil
	g.overlay = neutralOverlay()
	g.clearPatternState()
}

// Phase returns the position within the current cardiac cycle, [0,1).
func (g *Generator) Phase() float64 {
	rr := g.currentRR
	if rr <= 0 {
		rr = g.params.CycleLength()
	}
	p := (g.clock.Elapsed - g.clock.LastBeat) / waveform.SafeSpan(0, rr)
	if p < 0 {
		p = 0
	}
	if p >= 1 {
		p = math.Mod(p, 1)
	}
	return p
}

// NextValue advances the clock one sample period and returns one ECG
// sample in mV. It never fails once parameters are valid.
func (g *Generator) NextValue() float64 {
	g.clock.Advance(g.params.SamplePeriod())

	var v float64
	switch g.rhythm {
	case RhythmAsystole:
		v = 0
	case RhythmVFib:
		v = g.sampleVFib()
	case RhythmAFlutter:
		v = g.sampleFlutter()
	case RhythmCompleteBlock:
		v = g.sampleCompleteBlock()
	default:
		v = g.sampleBeatTrain()
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

// sampleBeatTrain runs the single-ventricular-clock rhythms: one beat
// is scheduled at a time, its morphology fixed at beat onset.
func (g *Generator) sampleBeatTrain() float64 {
	if g.currentRR <= 0 {
		g.startBeat()
	}
	for g.clock.Elapsed-g.clock.LastBeat >= g.currentRR {
		g.clock.LastBeat += g.currentRR
		g.beatCount++
		g.startBeat()
	}

	t := g.clock.Elapsed - g.clock.LastBeat
	var v float64
	if g.beatDropped {
		// Blocked beat: the P wave fires, the ventricle does not.
		p := g.beat
		p.HasQRS = false
		v = p.value(t)
	} else {
		v = g.beat.value(t)
	}
	v *= g.params.Amplitude

	if g.rhythm == RhythmAFib {
		v += g.fibrillatoryWave(g.clock.Elapsed)
	}
	if g.rhythm == RhythmPaced && !g.beatDropped {
		// Pacing spike right at beat onset.
		v += waveform.Gaussian(t, 0.004, 0.0015, 1.6*g.params.Amplitude)
	}
	return v
}

// startBeat fixes RR and morphology for the beat that begins at
// clock.LastBeat.
func (g *Generator) startBeat() {
	rr := g.params.CycleLength()
	m := normalMorphology()
	g.beatDropped = false

	switch g.rhythm {
	case RhythmFirstDegree:
		m.PRInterval = 0.28

	case RhythmWenckebach:
		o := g.opts.(WenckebachOptions)
		pos := g.beatCount % (o.MaxCount + 1)
		if pos == o.MaxCount {
			g.beatDropped = true
		} else {
			m.PRInterval = 0.16 + float64(pos)*o.PRIncrement
		}

	case RhythmMobitz2:
		o := g.opts.(Mobitz2Options)
		if (g.beatCount+1)%o.ConductionRatio == 0 {
			g.beatDropped = true
		}

	case RhythmAFib:
		o := g.opts.(AFibOptions)
		m.HasP = false
		m.PRInterval = 0.04
		rr *= 1 + o.Irregularity*(2*g.noise.Float64()-1)

	case RhythmVTach:
		m = vtachMorphology()

	case RhythmPVC, RhythmPAC:
		o := g.opts.(EctopicOptions)
		if g.nextEctopic == 0 {
			g.scheduleEctopic()
		}
		if g.pauseNext {
			// Compensatory pause after the ectopic.
			rr *= 1.35
			g.pauseNext = false
		} else if g.beatCount >= g.nextEctopic {
			if g.noise.Float64() < o.Probability {
				if g.rhythm == RhythmPVC {
					m = pvcMorphology()
				} else {
					m = pacMorphology()
				}
				rr *= 0.65
				g.pauseNext = true
			}
			g.scheduleEctopic()
		}

	case RhythmPaced:
		m = pacedMorphology()
	}

	if !g.overlay.isNeutral() {
		m = g.overlay.apply(m)
	}
	g.currentRR = rr
	g.beat = m.fitTo(rr)
}

// scheduleEctopic arms the next possible ectopic 1-3 beats ahead.
func (g *Generator) scheduleEctopic() {
	g.nextEctopic = g.beatCount + 1 + int(g.noise.Float64()*3)
}

// fibrillatoryWave is the chaotic atrial baseline under AFib, a sum of
// incommensurate sines.
func (g *Generator) fibrillatoryWave(t float64) float64 {
	o := g.opts.(AFibOptions)
	return o.FWaveAmplitude * (0.6*math.Sin(2*math.Pi*5.8*t) +
		0.3*math.Sin(2*math.Pi*7.3*t+1.1) +
		0.1*math.Sin(2*math.Pi*9.7*t+2.4))
}

// sampleVFib produces coarse chaotic fibrillation: the envelope and
// dominant frequency are redrawn from the noise source a few times a
// second.
func (g *Generator) sampleVFib() float64 {
	if g.clock.Elapsed >= g.clock.NextEvent {
		g.vfAmp = 0.2 + 0.4*g.noise.Float64()
		g.vfFreq = 4.0 + 3.0*g.noise.Float64()
		g.clock.NextEvent = g.clock.Elapsed + 0.35 + 0.2*g.noise.Float64()
	}
	t := g.clock.Elapsed
	v := g.vfAmp * (math.Sin(2*math.Pi*g.vfFreq*t) +
		0.5*math.Sin(2*math.Pi*(g.vfFreq*1.7)*t+0.8))
	return v * g.params.Amplitude
}

// sampleFlutter sums a continuous sawtooth atrial wave with QRS
// complexes conducted at a fixed ratio.
func (g *Generator) sampleFlutter() float64 {
	o := g.opts.(AFlutterOptions)
	atrialCycle := 60.0 / o.AtrialRate
	ventricularRR := atrialCycle * float64(o.ConductionRatio)

	if g.currentRR <= 0 {
		g.currentRR = ventricularRR
		g.beat = g.flutterBeat()
	}
	for g.clock.Elapsed-g.clock.LastBeat >= g.currentRR {
		g.clock.LastBeat += g.currentRR
		g.beatCount++
		g.currentRR = ventricularRR
	}

	t := g.clock.Elapsed - g.clock.LastBeat
	v := g.beat.value(t) * g.params.Amplitude
	// Inverted sawtooth flutter waves ride under everything.
	v += -0.20 * g.params.Amplitude * (waveform.Phase(g.clock.Elapsed, atrialCycle) - 0.5)
	return v
}

func (g *Generator) flutterBeat() Morphology {
	m := normalMorphology()
	m.HasP = false
	m.PRInterval = 0.04
	if !g.overlay.isNeutral() {
		m = g.overlay.apply(m)
	}
	return m
}

// sampleCompleteBlock runs the atrial and ventricular wavetrains on
// fully independent clocks.
func (g *Generator) sampleCompleteBlock() float64 {
	o := g.opts.(CompleteBlockOptions)
	atrialCycle := 60.0 / o.AtrialRate
	escapeCycle := 60.0 / o.EscapeRate

	m := normalMorphology()
	if !g.overlay.isNeutral() {
		m = g.overlay.apply(m)
	}

	// P waves on the atrial clock.
	pT := waveform.Phase(g.clock.Elapsed, atrialCycle) * atrialCycle
	v := waveform.HalfSine(pT, 0, m.PDur, m.PAmp)

	// Wide escape complexes on the ventricular clock.
	esc := m
	esc.HasP = false
	esc.PRInterval = 0.02
	esc.QRSDur = 0.14
	esc.RAmp = 0.9
	vT := waveform.Phase(g.clock.Elapsed, escapeCycle) * escapeCycle
	v += esc.value(vT)

	return v * g.params.Amplitude
}
