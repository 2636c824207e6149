package respiratory

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

func TestCheyneStokesApneaWindow(t *testing.T) {
	g := testGenerator(1)
	const noiseLevel = 0.01
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(noiseLevel)}); err != nil {
		t.Fatalf("UpdateParams: %v", err)
	}
	g.SetPattern(PatternCheyneStokes, CheyneStokesOptions{
		CrescendoDuration: 60,
		ApneaDuration:     20,
	})

	period := 160.0 // two full 80 s cycles
	dt := g.Params().SamplePeriod()
	elapsed := 0.0
	for elapsed < period {
		v := g.NextValue()
		elapsed += dt
		if m := math.Mod(elapsed, 80); m >= 60 && m < 80 {
			if math.Abs(v) > noiseLevel {
				t.Fatalf("t=%v (mod 80 = %v): sample %v outside apnea noise band", elapsed, m, v)
			}
		}
	}
}

func TestApneaIsFlat(t *testing.T) {
	g := testGenerator(2)
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(0)}); err != nil {
		t.Fatalf("UpdateParams: %v", err)
	}
	g.SetPattern(PatternApnea, nil)
	for i, v := range g.GenerateWaveform(5) {
		if v != 0 {
			t.Fatalf("apnea sample %d = %v, want 0", i, v)
		}
	}
}

func TestParadoxicalInvertsNormal(t *testing.T) {
	a := testGenerator(3)
	b := testGenerator(3)
	noP := waveform.Partial{NoiseLevel: f64(0)}
	if err := a.UpdateParams(noP); err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateParams(noP); err != nil {
		t.Fatal(err)
	}
	b.SetPattern(PatternParadoxical, nil)

	va := a.GenerateWaveform(4)
	vb := b.GenerateWaveform(4)
	for i := range va {
		if math.Abs(va[i]+vb[i]) > 1e-12 {
			t.Fatalf("sample %d: %v is not the inverse of %v", i, vb[i], va[i])
		}
	}
}

func TestKussmaulEntryOverrides(t *testing.T) {
	g := testGenerator(4)
	g.SetPattern(PatternKussmaul, nil)
	p := g.Params()
	if p.Rate < 28 {
		t.Errorf("kussmaul rate = %v, want >= 28", p.Rate)
	}
	if p.IERatio != 0.5 {
		t.Errorf("kussmaul I:E fraction = %v, want 0.5", p.IERatio)
	}
	if p.Amplitude <= 1.0 {
		t.Errorf("kussmaul amplitude = %v, want raised", p.Amplitude)
	}
}

func TestAgonalMostlyFlatline(t *testing.T) {
	g := testGenerator(5)
	if err := g.UpdateParams(waveform.Partial{NoiseLevel: f64(0)}); err != nil {
		t.Fatal(err)
	}
	g.SetPattern(PatternAgonal, nil)

	samples := g.GenerateWaveform(120)
	active := 0
	for _, v := range samples {
		if math.Abs(v) > 1e-9 {
			active++
		}
	}
	frac := float64(active) / float64(len(samples))
	if frac == 0 {
		t.Error("no agonal gasp fired over 120 s")
	}
	// Gasps last at most 2 s every 20-60 s.
	if frac > 0.15 {
		t.Errorf("agonal active fraction = %v, want near-flatline", frac)
	}
}

func TestDeterministicGivenSameSeed(t *testing.T) {
	a := testGenerator(42)
	b := testGenerator(42)
	a.SetPattern(PatternAtaxic, nil)
	b.SetPattern(PatternAtaxic, nil)

	va := a.GenerateWaveform(30)
	vb := b.GenerateWaveform(30)
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, va[i], vb[i])
		}
	}
}

func TestUnknownPatternKeepsPrior(t *testing.T) {
	g := testGenerator(6)
	g.SetPattern(PatternBiot, nil)
	g.SetPattern(Pattern("sighing"), nil)
	if g.Pattern() != PatternBiot {
		t.Errorf("pattern = %s after unknown tag, want %s", g.Pattern(), PatternBiot)
	}
}

func TestPhaseStaysNormalized(t *testing.T) {
	g := testGenerator(7)
	for i := 0; i < 3000; i++ {
		g.NextValue()
		if p := g.Phase(); p < 0 || p >= 1 {
			t.Fatalf("phase %v out of [0,1) at sample %d", p, i)
		}
	}
}

func TestCascadeSelection(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*patient.State)
		want   Pattern
	}{
		{"intubated_ventilated", func(s *patient.State) {
			s.Intubated = true
			s.VentilatorMode = patient.VentModeAC
		}, PatternAssisted},
		{"severe_depression", func(s *patient.State) {
			s.RespiratoryDepression = 0.9
		}, PatternApnea},
		{"severe_cns", func(s *patient.State) { s.CNSInjury = 0.85 }, PatternAtaxic},
		{"acidosis", func(s *patient.State) { s.MetabolicAcidosis = 0.7 }, PatternKussmaul},
		{"cns_cheyne_stokes_band", func(s *patient.State) { s.CNSInjury = 0.5 }, PatternCheyneStokes},
		{"cns_biot_band", func(s *patient.State) { s.CNSInjury = 0.7 }, PatternBiot},
		{"obstruction", func(s *patient.State) { s.AirwayObstruction = 0.6 }, PatternObstructive},
		{"weakness", func(s *patient.State) { s.MuscleWeakness = 0.7 }, PatternParadoxical},
		{"distress", func(s *patient.State) { s.RespiratoryDistress = 0.5 }, PatternTachypnea},
		{"hypoxia", func(s *patient.State) { s.SpO2 = 85 }, PatternTachypnea},
		{"moderate_depression", func(s *patient.State) { s.RespiratoryDepression = 0.5 }, PatternBradypnea},
		{"baseline", func(s *patient.State) {}, PatternNormal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := testGenerator(8)
			s := patient.Normal()
			tc.mutate(&s)
			g.ApplyPatientState(s)
			if g.Pattern() != tc.want {
				t.Errorf("pattern = %s, want %s", g.Pattern(), tc.want)
			}
		})
	}
}

func TestCPRDrivesControlledBreaths(t *testing.T) {
	g := testGenerator(9)
	s := patient.Normal()
	s.CardiacArrest = true
	s.CPRInProgress = true
	g.ApplyPatientState(s)

	if g.Pattern() != PatternAssisted {
		t.Fatalf("pattern = %s, want %s", g.Pattern(), PatternAssisted)
	}
	if o := g.PatternOptions().(AssistedOptions); o.MachineRate != 10 {
		t.Errorf("machine rate = %v, want 10", o.MachineRate)
	}
}

func TestArrestWithoutCPRIsApneaOrAgonal(t *testing.T) {
	s := patient.Normal()
	s.CardiacArrest = true
	for seed := int64(0); seed < 20; seed++ {
		g := testGenerator(seed)
		g.ApplyPatientState(s)
		if p := g.Pattern(); p != PatternApnea && p != PatternAgonal {
			t.Fatalf("seed %d: arrest selected %s", seed, p)
		}
	}
}

func TestTachypneaRateScalesWithDistress(t *testing.T) {
	g := testGenerator(10)
	s := patient.Normal()
	s.RespiratoryDistress = 0.8
	g.ApplyPatientState(s)
	want := 16 + 14*0.8
	if g.Params().Rate != want {
		t.Errorf("rate = %v, want %v", g.Params().Rate, want)
	}
}
