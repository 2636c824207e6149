package respiratory

// Pattern identifies one breathing pattern state.
type Pattern string

const (
	PatternNormal       Pattern = "normal"
	PatternApnea        Pattern = "apnea"
	PatternBradypnea    Pattern = "bradypnea"
	PatternTachypnea    Pattern = "tachypnea"
	PatternCheyneStokes Pattern = "cheyne_stokes"
	PatternKussmaul     Pattern = "kussmaul"
	PatternBiot         Pattern = "biot"
	PatternObstructive  Pattern = "obstructive"
	PatternAgonal       Pattern = "agonal"
	PatternParadoxical  Pattern = "paradoxical"
	PatternAtaxic       Pattern = "ataxic"
	PatternAssisted     Pattern = "assisted_ventilation"
)

var knownPatterns = map[Pattern]bool{
	PatternNormal:       true,
	PatternApnea:        true,
	PatternBradypnea:    true,
	PatternTachypnea:    true,
	PatternCheyneStokes: true,
	PatternKussmaul:     true,
	PatternBiot:         true,
	PatternObstructive:  true,
	PatternAgonal:       true,
	PatternParadoxical:  true,
	PatternAtaxic:       true,
	PatternAssisted:     true,
}

// Known reports whether tag names a supported pattern.
func Known(tag Pattern) bool { return knownPatterns[tag] }

// Options is the tagged union of per-pattern settings; patterns
// without settings take nil.
type Options interface {
	patternOptions()
}

// CheyneStokesOptions shapes the periodic-breathing envelope.
type CheyneStokesOptions struct {
	CrescendoDuration float64 `json:"crescendo_duration"` // seconds of enveloped breathing
	ApneaDuration     float64 `json:"apnea_duration"`     // seconds of apnea after it
}

// BiotOptions shapes cluster breathing.
type BiotOptions struct {
	BreathCount   int     `json:"breath_count"`   // full-amplitude breaths per cluster
	ApneaDuration float64 `json:"apnea_duration"` // seconds of apnea between clusters
}

// ObstructiveOptions scales the obstructive reshaping.
type ObstructiveOptions struct {
	Severity float64 `json:"severity"` // [0,1]
}

// AgonalOptions bounds the interval between agonal gasps.
type AgonalOptions struct {
	MinInterval float64 `json:"min_interval"` // seconds
	MaxInterval float64 `json:"max_interval"` // seconds
}

// AtaxicOptions scales the per-cycle irregularity.
type AtaxicOptions struct {
	Variability float64 `json:"variability"` // [0,1]
}

// AssistedOptions configures machine breaths and patient asynchrony.
type AssistedOptions struct {
	MachineRate           float64 `json:"machine_rate"`           // breaths/min set on the ventilator
	TriggerRate           float64 `json:"trigger_rate"`           // spontaneous patient-effort rate
	AsynchronyProbability float64 `json:"asynchrony_probability"` // per machine cycle, [0,1]
}

func (CheyneStokesOptions) patternOptions() {}
func (BiotOptions) patternOptions()         {}
func (ObstructiveOptions) patternOptions()  {}
func (AgonalOptions) patternOptions()       {}
func (AtaxicOptions) patternOptions()       {}
func (AssistedOptions) patternOptions()     {}

func defaultCheyneStokes() CheyneStokesOptions {
	return CheyneStokesOptions{CrescendoDuration: 45, ApneaDuration: 15}
}

func defaultBiot() BiotOptions {
	return BiotOptions{BreathCount: 4, ApneaDuration: 12}
}

func defaultObstructive() ObstructiveOptions {
	return ObstructiveOptions{Severity: 0.5}
}

func defaultAgonal() AgonalOptions {
	return AgonalOptions{MinInterval: 20, MaxInterval: 60}
}

func defaultAtaxic() AtaxicOptions { return AtaxicOptions{Variability: 0.5} }

func defaultAssisted() AssistedOptions {
	return AssistedOptions{MachineRate: 12, TriggerRate: 18, AsynchronyProbability: 0.1}
}
