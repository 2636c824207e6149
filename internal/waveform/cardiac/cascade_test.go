package cardiac

import (
	"testing"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
)

func TestCascadeCardiacArrest(t *testing.T) {
	s := patient.Normal()
	s.CardiacArrest = true

	seen := map[Rhythm]bool{}
	for seed := int64(0); seed < 50; seed++ {
		g := testGenerator(seed)
		g.ApplyPatientState(s)
		seen[g.Rhythm()] = true
		switch g.Rhythm() {
		case RhythmVFib, RhythmAsystole, RhythmVTach:
		default:
			t.Fatalf("arrest selected %s", g.Rhythm())
		}
	}
	if !seen[RhythmVFib] || !seen[RhythmAsystole] {
		t.Errorf("arrest choice not spread across seeds: %v", seen)
	}
}

func TestCascadeSevereBradycardia(t *testing.T) {
	s := patient.Normal()
	s.HeartRate = 35

	for seed := int64(0); seed < 20; seed++ {
		g := testGenerator(seed)
		g.ApplyPatientState(s)
		switch g.Rhythm() {
		case RhythmSinusBrady, RhythmFirstDegree, RhythmWenckebach, RhythmCompleteBlock:
		default:
			t.Fatalf("bradycardia selected %s", g.Rhythm())
		}
	}
}

func TestCascadeSevereTachycardia(t *testing.T) {
	s := patient.Normal()
	s.HeartRate = 160

	for seed := int64(0); seed < 20; seed++ {
		g := testGenerator(seed)
		g.ApplyPatientState(s)
		switch g.Rhythm() {
		case RhythmSinusTachy, RhythmAFib, RhythmVTach:
		default:
			t.Fatalf("tachycardia selected %s", g.Rhythm())
		}
	}
}

func TestCascadeBoundaryExclusive(t *testing.T) {
	// hr == 140 is not severe tachycardia; hr == 40 is not severe
	// bradycardia.
	for _, hr := range []float64{40, 140} {
		g := testGenerator(11)
		s := patient.Normal()
		s.HeartRate = hr
		g.ApplyPatientState(s)
		if g.Rhythm() != RhythmSinus {
			t.Errorf("hr=%v selected %s, want %s", hr, g.Rhythm(), RhythmSinus)
		}
	}
}

func TestCascadeCardiacDepressionScalesEctopy(t *testing.T) {
	g := testGenerator(12)
	s := patient.Normal()
	s.CardiacDepression = 0.6
	g.ApplyPatientState(s)

	if g.Rhythm() != RhythmPVC {
		t.Fatalf("rhythm = %s, want %s", g.Rhythm(), RhythmPVC)
	}
	o := g.RhythmOptions().(EctopicOptions)
	want := 0.1 + 0.4*0.6
	if o.Probability != want {
		t.Errorf("ectopic probability = %v, want %v", o.Probability, want)
	}
}

func TestElectrolyteOverlayIndependentOfRhythm(t *testing.T) {
	g := testGenerator(13)
	s := patient.Normal()
	s.Potassium = 6.2
	g.ApplyPatientState(s)

	if g.Rhythm() != RhythmSinus {
		t.Fatalf("rhythm = %s, want sinus with overlay", g.Rhythm())
	}
	if g.overlay.QRSWidthFactor != 1.5 || g.overlay.TAmpFactor != 2.0 {
		t.Errorf("hyperkalemia overlay not applied: %+v", g.overlay)
	}

	s.Potassium = 3.0
	g.ApplyPatientState(s)
	if !g.overlay.EnableUWave || g.overlay.TAmpFactor != 0.4 {
		t.Errorf("hypokalemia overlay not applied: %+v", g.overlay)
	}
}

func TestHeartRateTracksSnapshot(t *testing.T) {
	g := testGenerator(14)
	s := patient.Normal()
	s.HeartRate = 95
	g.ApplyPatientState(s)
	if g.Params().Rate != 95 {
		t.Errorf("rate = %v, want 95", g.Params().Rate)
	}
}
