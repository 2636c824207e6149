package capnography

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

func testGenerator(seed int64) *Generator {
	return New(zap.NewNop(), waveform.NewNoise(seed))
}

func f64(v float64) *float64 { return &v }

func TestPlateauEndReachesETCO2(t *testing.T) {
	g := testGenerator(1)
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(0)}); err != nil {
		t.Fatalf("UpdateParams: %v", err)
	}
	etco2 := g.Params().Amplitude

	// Walk one full breath and keep the last plateau sample.
	var plateauEnd float64
	n := int(g.Params().CycleLength() * g.Params().SampleRate)
	for i := 0; i < n; i++ {
		v := g.NextValue()
		if g.BreathPhase() == PhasePlateau {
			plateauEnd = v
		}
	}
	if math.Abs(plateauEnd-etco2) > 0.02*etco2 {
		t.Errorf("plateau end = %v, want %v within 2%%", plateauEnd, etco2)
	}
}

func TestEsophagealNearZero(t *testing.T) {
	g := testGenerator(2)
	g.SetPattern(PatternEsophageal, nil)
	etco2 := g.Params().Amplitude

	// Mean absolute value over consecutive 10-second windows stays
	// below 10% of the configured ETCO2.
	for window := 0; window < 3; window++ {
		samples := g.GenerateWaveform(10)
		var sum float64
		for _, v := range samples {
			sum += math.Abs(v)
		}
		mean := sum / float64(len(samples))
		if mean > 0.1*etco2 {
			t.Errorf("window %d: mean |CO2| = %v, want < %v", window, mean, 0.1*etco2)
		}
	}
}

func TestEsophagealSpikesOnlyFirstBreaths(t *testing.T) {
	g := testGenerator(3)
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(0)}); err != nil {
		t.Fatal(err)
	}
	g.SetPattern(PatternEsophageal, EsophagealOptions{SpikeBreaths: 2})

	cycle := g.Params().CycleLength()
	twoBreaths := g.GenerateWaveform(2 * cycle)
	rest := g.GenerateWaveform(4 * cycle)

	maxEarly, maxLate := 0.0, 0.0
	for _, v := range twoBreaths {
		maxEarly = math.Max(maxEarly, v)
	}
	for _, v := range rest {
		maxLate = math.Max(maxLate, v)
	}
	if maxEarly == 0 {
		t.Error("no spike on the first expirations")
	}
	if maxLate != 0 {
		t.Errorf("spike persisted after %d breaths: %v", 2, maxLate)
	}
}

func TestBreathPhaseSequence(t *testing.T) {
	g := testGenerator(4)

	seen := map[BreathPhase]bool{}
	var prev BreathPhase
	order := []BreathPhase{}
	n := int(2 * g.Params().CycleLength() * g.Params().SampleRate)
	for i := 0; i < n; i++ {
		g.NextValue()
		if p := g.BreathPhase(); p != prev {
			order = append(order, p)
			seen[p] = true
			prev = p
		}
	}
	for _, p := range []BreathPhase{PhaseInspiration, PhaseUpstroke, PhasePlateau, PhaseDownstroke} {
		if !seen[p] {
			t.Errorf("phase %s never entered (order: %v)", p, order)
		}
	}
	// Transitions only ever run inspiration -> upstroke -> plateau ->
	// downstroke -> inspiration.
	valid := map[BreathPhase]BreathPhase{
		PhaseInspiration: PhaseUpstroke,
		PhaseUpstroke:    PhasePlateau,
		PhasePlateau:     PhaseDownstroke,
		PhaseDownstroke:  PhaseInspiration,
	}
	for i := 1; i < len(order); i++ {
		if valid[order[i-1]] != order[i] {
			t.Fatalf("illegal transition %s -> %s", order[i-1], order[i])
		}
	}
}

func TestPlateauTakesMostOfExpiration(t *testing.T) {
	g := testGenerator(5)
	dt := g.Params().SamplePeriod()

	counts := map[BreathPhase]int{}
	n := int(10 * g.Params().CycleLength() / dt)
	for i := 0; i < n; i++ {
		g.NextValue()
		counts[g.BreathPhase()]++
	}
	exp := counts[PhaseUpstroke] + counts[PhasePlateau] + counts[PhaseDownstroke]
	frac := float64(counts[PhasePlateau]) / float64(exp)
	if math.Abs(frac-0.70) > 0.03 {
		t.Errorf("plateau fraction of expiration = %v, want ~0.70", frac)
	}
}

func TestCascadeObstructionCarriesSeverity(t *testing.T) {
	g := testGenerator(6)
	s := patient.Normal()
	s.AirwayObstruction = 0.5
	g.ApplyPatientState(s)

	if g.Pattern() != PatternObstructive {
		t.Fatalf("pattern = %s, want %s", g.Pattern(), PatternObstructive)
	}
	if o := g.PatternOptions().(ObstructiveOptions); o.Severity != 0.5 {
		t.Errorf("severity = %v, want 0.5", o.Severity)
	}
}

func TestCascadeArrestClampsETCO2(t *testing.T) {
	g := testGenerator(7)
	s := patient.Normal()
	s.CardiacArrest = true
	g.ApplyPatientState(s)

	if g.Pattern() != PatternEsophageal {
		t.Fatalf("pattern = %s, want %s", g.Pattern(), PatternEsophageal)
	}
	if g.Params().Amplitude > 8 {
		t.Errorf("ETCO2 = %v after arrest, want clamped <= 8", g.Params().Amplitude)
	}
}

func TestCascadeDepressionAndRate(t *testing.T) {
	g := testGenerator(8)
	s := patient.Normal()
	s.RespiratoryDepression = 0.6
	g.ApplyPatientState(s)
	if g.Pattern() != PatternHypoventilation {
		t.Errorf("pattern = %s, want %s", g.Pattern(), PatternHypoventilation)
	}

	s = patient.Normal()
	s.RespiratoryRate = 30
	g.ApplyPatientState(s)
	if g.Pattern() != PatternHyperventilation {
		t.Errorf("pattern = %s, want %s", g.Pattern(), PatternHyperventilation)
	}
	if g.Params().Rate != 30 {
		t.Errorf("rate = %v, want 30", g.Params().Rate)
	}
}

func TestLowCardiacOutputPenaltyIndependent(t *testing.T) {
	g := testGenerator(9)
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(0)}); err != nil {
		t.Fatal(err)
	}
	s := patient.Normal()
	s.CardiacOutput = 1.5
	g.ApplyPatientState(s)

	if g.Pattern() != PatternNormal {
		t.Fatalf("pattern = %s, want %s", g.Pattern(), PatternNormal)
	}
	want := g.Params().Amplitude * (1.5 / 3)
	var peak float64
	for _, v := range g.GenerateWaveform(2 * g.Params().CycleLength()) {
		peak = math.Max(peak, v)
	}
	if math.Abs(peak-want) > 0.03*want {
		t.Errorf("peak = %v with low cardiac output, want ~%v", peak, want)
	}
}

func TestHypoventilationScalesETCO2(t *testing.T) {
	g := testGenerator(10)
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(0)}); err != nil {
		t.Fatal(err)
	}
	g.SetPattern(PatternHypoventilation, nil)

	want := 1.3 * g.Params().Amplitude
	var peak float64
	for _, v := range g.GenerateWaveform(2 * g.Params().CycleLength()) {
		peak = math.Max(peak, v)
	}
	if math.Abs(peak-want) > 0.03*want {
		t.Errorf("hypoventilation peak = %v, want ~%v", peak, want)
	}
}

func TestDeterministicGivenSameSeed(t *testing.T) {
	a := testGenerator(42)
	b := testGenerator(42)
	va := a.GenerateWaveform(10)
	vb := b.GenerateWaveform(10)
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, va[i], vb[i])
		}
	}
}

func TestUnknownPatternKeepsPrior(t *testing.T) {
	g := testGenerator(11)
	g.SetPattern(PatternRebreathing, nil)
	g.SetPattern(Pattern("biphasic"), nil)
	if g.Pattern() != PatternRebreathing {
		t.Errorf("pattern = %s after unknown tag, want %s", g.Pattern(), PatternRebreathing)
	}
}
