package respiratory

import (
	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
)

type rule struct {
	name    string
	matches func(patient.State) bool
	apply   func(*Generator, patient.State)
}

// cascade maps the clinical snapshot to a breathing pattern, first
// match wins. Thresholds are fixed design constants.
var cascade = []rule{
	{
		name: "assisted_ventilation",
		matches: func(s patient.State) bool {
			return s.Intubated && s.VentilatorMode.Active()
		},
		apply: func(g *Generator, s patient.State) {
			rate := s.RespiratoryRate
			if rate <= 0 {
				rate = 12
			}
			g.SetPattern(PatternAssisted, AssistedOptions{
				MachineRate:           rate,
				TriggerRate:           14 + 10*s.RespiratoryDistress,
				AsynchronyProbability: 0.2*s.RespiratoryDepression + 0.3*s.RespiratoryDistress,
			})
		},
	},
	{
		name:    "cardiac_arrest",
		matches: func(s patient.State) bool { return s.CardiacArrest },
		apply: func(g *Generator, s patient.State) {
			if s.CPRInProgress {
				// Bag-driven controlled breaths during CPR.
				g.SetPattern(PatternAssisted, AssistedOptions{MachineRate: 10})
				return
			}
			if g.noise.Float64() < 0.7 {
				g.SetPattern(PatternApnea, nil)
			} else {
				g.SetPattern(PatternAgonal, defaultAgonal())
			}
		},
	},
	{
		name:    "severe_depression",
		matches: func(s patient.State) bool { return s.RespiratoryDepression >= 0.8 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternApnea, nil)
		},
	},
	{
		name:    "severe_cns_injury",
		matches: func(s patient.State) bool { return s.CNSInjury >= 0.8 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternAtaxic, AtaxicOptions{Variability: s.CNSInjury})
		},
	},
	{
		name:    "metabolic_acidosis",
		matches: func(s patient.State) bool { return s.MetabolicAcidosis >= 0.6 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternKussmaul, nil)
		},
	},
	{
		name: "moderate_cns_injury_cheyne_stokes",
		matches: func(s patient.State) bool {
			return s.CNSInjury >= 0.4 && s.CNSInjury < 0.6
		},
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternCheyneStokes, defaultCheyneStokes())
		},
	},
	{
		name: "moderate_cns_injury_biot",
		matches: func(s patient.State) bool {
			return s.CNSInjury >= 0.6 && s.CNSInjury < 0.8
		},
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternBiot, defaultBiot())
		},
	},
	{
		name:    "airway_obstruction",
		matches: func(s patient.State) bool { return s.AirwayObstruction >= 0.5 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternObstructive, ObstructiveOptions{Severity: s.AirwayObstruction})
		},
	},
	{
		name:    "muscle_weakness",
		matches: func(s patient.State) bool { return s.MuscleWeakness >= 0.6 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternParadoxical, nil)
		},
	},
	{
		name: "distress_tachypnea",
		matches: func(s patient.State) bool {
			return s.RespiratoryDistress >= 0.4 || s.SpO2 < 90
		},
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternTachypnea, nil)
			g.params.Rate = 16 + 14*s.RespiratoryDistress
		},
	},
	{
		name:    "moderate_depression",
		matches: func(s patient.State) bool { return s.RespiratoryDepression >= 0.4 },
		apply: func(g *Generator, s patient.State) {
			g.SetPattern(PatternBradypnea, nil)
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

// ApplyPatientState evaluates the cascade against the snapshot.
func (g *Generator) ApplyPatientState(s patient.State) {
	if s.RespiratoryRate > 0 {
		g.params.Rate = s.RespiratoryRate
	}
	for _, r := range cascade {
		if r.matches(s) {
			g.logger.Debug("Respiratory cascade rule matched",
				zap.String("rule", r.name),
				zap.Float64("respiratory_rate", s.RespiratoryRate))
			r.apply(g, s)
			break
		}
	}
}
