package cardiac

import (
	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

// rule is one entry of the clinical selection cascade. Rules are
// evaluated top to bottom; the first match wins.
type rule struct {
	name    string
	matches func(patient.State) bool
	apply   func(*Generator, patient.State)
}

// weightedChoice spends exactly one draw and returns the index of the
// selected weight.
func weightedChoice(n waveform.Noise, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	draw := n.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// cascade maps the clinical snapshot to a rhythm, first match wins.
// Branch weights and thresholds are fixed design constants.
var cascade = []rule{
	{
		name:    "cardiac_arrest",
		matches: func(s patient.State) bool { return s.CardiacArrest },
		apply: func(g *Generator, s patient.State) {
			switch weightedChoice(g.noise, []float64{0.5, 0.3, 0.2}) {
			case 0:
				g.SetRhythm(RhythmVFib, nil)
			case 1:
				g.SetRhythm(RhythmAsystole, nil)
			default:
				g.SetRhythm(RhythmVTach, VTachOptions{Rate: 190})
			}
		},
	},
	{
		name:    "severe_bradycardia",
		matches: func(s patient.State) bool { return s.HeartRate < 40 },
		apply: func(g *Generator, s patient.State) {
			switch weightedChoice(g.noise, []float64{0.4, 0.25, 0.2, 0.15}) {
			case 0:
				g.SetRhythm(RhythmSinusBrady, nil)
			case 1:
				g.SetRhythm(RhythmFirstDegree, nil)
			case 2:
				g.SetRhythm(RhythmWenckebach, defaultWenckebach())
			default:
				g.SetRhythm(RhythmCompleteBlock, defaultCompleteBlock())
			}
		},
	},
	{
		name:    "severe_tachycardia",
		matches: func(s patient.State) bool { return s.HeartRate > 140 },
		apply: func(g *Generator, s patient.State) {
			switch weightedChoice(g.noise, []float64{0.6, 0.3, 0.1}) {
			case 0:
				g.SetRhythm(RhythmSinusTachy, nil)
			case 1:
				g.SetRhythm(RhythmAFib, defaultAFib())
			default:
				g.SetRhythm(RhythmVTach, VTachOptions{Rate: 170})
			}
		},
	},
	{
		name:    "hypoxic_arrhythmia_risk",
		matches: func(s patient.State) bool { return s.SpO2 < 85 },
		apply: func(g *Generator, s patient.State) {
			switch weightedChoice(g.noise, []float64{0.4, 0.2, 0.4}) {
			case 0:
				g.SetRhythm(RhythmPVC, defaultEctopic())
			case 1:
				g.SetRhythm(RhythmAFib, defaultAFib())
			default:
				g.SetRhythm(RhythmSinus, nil)
			}
		},
	},
	{
		name:    "cardiac_depression",
		matches: func(s patient.State) bool { return s.CardiacDepression >= 0.4 },
		apply: func(g *Generator, s patient.State) {
			g.SetRhythm(RhythmPVC, EctopicOptions{
				Probability: 0.1 + 0.4*s.CardiacDepression,
			})
		},
	},
	{
		name:    "normal_sinus",
		matches: func(s patient.State) bool { return true },
		apply: func(g *Generator, s patient.State) {
			g.SetRhythm(RhythmSinus, nil)
		},
	},
}

// electrolyteOverlay derives the morphology adjustment applied on top
// of whatever rhythm the cascade selected.
func electrolyteOverlay(s patient.State) Overlay {
	o := neutralOverlay()
	switch {
	case s.Potassium > 5.5: // hyperkalemia
		o.QRSWidthFactor = 1.5
		o.PAmpFactor = 0.3
		o.TAmpFactor = 2.0
	case s.Potassium > 0 && s.Potassium < 3.5: // hypokalemia
		o.TAmpFactor = 0.4
		o.EnableUWave = true
	}
	switch {
	case s.Calcium > 0 && s.Calcium < 2.1: // hypocalcemia, long QT
		o.QTFactor = 1.3
	case s.Calcium > 2.6: // hypercalcemia, short QT
		o.QTFactor = 0.75
	}
	return o
}

// ApplyPatientState evaluates the cascade against the snapshot and
// reconfigures the generator. The snapshot is read-only.
func (g *Generator) ApplyPatientState(s patient.State) {
	if s.HeartRate > 0 {
		g.params.Rate = s.HeartRate
	}
	for _, r := range cascade {
		if r.matches(s) {
			g.logger.Debug("Cardiac cascade rule matched",
				zap.String("rule", r.name),
				zap.Float64("heart_rate", s.HeartRate))
			r.apply(g, s)
			break
		}
	}
	g.overlay = electrolyteOverlay(s)
}
