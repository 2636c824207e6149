package capnography

import (
	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
)

type rule struct {
	name    string
	matches func(patient.State) bool
	apply   func(*Generator, patient.State)
}

// cascade maps the clinical snapshot to a capnogram pattern, first
// match wins. Thresholds are fixed design constants.
var cascade = []rule{
	{
		name:    "cardiac_arrest",
		matches: func(s patient.State) bool { return s.CardiacArrest },
		apply: func(g *Generator, s patient.State) {
			// No circulation: esophageal-style trace with ETCO2
			// clamped low.
			g.SetPattern(PatternEsophageal, defaultEsophageal())
			if g.params.Amplitude > 8 {
				g.params.Amplitude = 8
			}
		},
	},
	{
		name:    "airway_obstruction",
		matches: func(s patient.State) bool { return s.AirwayObstruction > 0.3 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternObstructive, ObstructiveOptions{Severity: s.AirwayObstruction})
		},
	},
	{
		name:    "respiratory_depression",
		matches: func(s patient.State) bool { return s.RespiratoryDepression > 0.5 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternHypoventilation, nil)
		},
	},
	{
		name:    "hyperventilation",
		matches: func(s patient.State) bool { return s.RespiratoryRate > 25 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternHyperventilation, nil)
		},
	},
	{
		name:    "normal",
		matches: func(s patient.State) bool { return true },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternNormal, nil)
		},
	},
}

// ApplyPatientState evaluates the cascade and, independently of the
// chosen pattern, applies the low-cardiac-output ETCO2 penalty.
func (g *Generator) ApplyPatientState(s patient.State) {
	if s.RespiratoryRate > 0 {
		g.params.Rate = s.RespiratoryRate
	}
	if s.ETCO2 > 0 {
		g.params.Amplitude = s.ETCO2
	}
	g.intubated = s.Intubated

	for _, r := range cascade {
		if r.matches(s) {
			g.logger.Debug("Capnography cascade rule matched",
				zap.String("rule", r.name),
				zap.Float64("etco2", s.ETCO2))
			r.apply(g, s)
			break
		}
	}

	// Low cardiac output always proportionally depresses the measured
	// ETCO2, whatever the pattern.
	if s.CardiacOutput > 0 && s.CardiacOutput < 3 {
		g.coScale = s.CardiacOutput / 3
	} else {
		g.coScale = 1
	}
}
