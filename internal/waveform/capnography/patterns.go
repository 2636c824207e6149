package capnography

// Pattern identifies one capnogram pattern state.
type Pattern string

const (
	PatternNormal          Pattern = "normal"
	PatternObstructive     Pattern = "obstructive"
	PatternRebreathing     Pattern = "rebreathing"
	PatternHypoventilation Pattern = "hypoventilation"
	PatternHyperventilation Pattern = "hyperventilation"
	PatternAirwayLeak      Pattern = "airway_leak"
	PatternEsophageal      Pattern = "esophageal_intubation"
	PatternCardiacOsc      Pattern = "cardiac_oscillations"
	PatternCurareCleft     Pattern = "curare_cleft"
)

var knownPatterns = map[Pattern]bool{
	PatternNormal:           true,
	PatternObstructive:      true,
	PatternRebreathing:      true,
	PatternHypoventilation:  true,
	PatternHyperventilation: true,
	PatternAirwayLeak:       true,
	PatternEsophageal:       true,
	PatternCardiacOsc:       true,
	PatternCurareCleft:      true,
}

// BreathPhase is the intra-breath state of the 4-phase machine.
type BreathPhase string

const (
	PhaseInspiration BreathPhase = "inspiration"
	PhaseUpstroke    BreathPhase = "expiration_start"
	PhasePlateau     BreathPhase = "alveolar_plateau"
	PhaseDownstroke  BreathPhase = "expiration_end"
)

// Known reports whether tag names a supported pattern.
func Known(tag Pattern) bool { return knownPatterns[tag] }

// Options is the tagged union of per-pattern settings; patterns
// without settings take nil.
type Options interface {
	patternOptions()
}

// ObstructiveOptions scales the shark-fin reshaping.
type ObstructiveOptions struct {
	Severity float64 `json:"severity"` // [0,1]
}

// RebreathingOptions raises the inspiratory baseline.
type RebreathingOptions struct {
	BaselineFraction float64 `json:"baseline_fraction"` // fraction of ETCO2, (0,1)
}

// LeakOptions scales the airway-leak amplitude loss.
type LeakOptions struct {
	Severity float64 `json:"severity"` // [0,1]
}

// EsophagealOptions bounds the initial decaying spikes.
type EsophagealOptions struct {
	SpikeBreaths int `json:"spike_breaths"` // expirations that still show a spike
}

// CardiacOscOptions carries the ripple frequency source.
type CardiacOscOptions struct {
	HeartRate float64 `json:"heart_rate"` // bpm
}

// CurareCleftOptions controls the mid-plateau dip.
type CurareCleftOptions struct {
	Depth float64 `json:"depth"` // fraction of ETCO2, (0,1)
}

func (ObstructiveOptions) patternOptions() {}
func (RebreathingOptions) patternOptions() {}
func (LeakOptions) patternOptions()        {}
func (EsophagealOptions) patternOptions()  {}
func (CardiacOscOptions) patternOptions()  {}
func (CurareCleftOptions) patternOptions() {}

func defaultObstructive() ObstructiveOptions { return ObstructiveOptions{Severity: 0.5} }

func defaultRebreathing() RebreathingOptions {
	return RebreathingOptions{BaselineFraction: 0.15}
}

func defaultLeak() LeakOptions { return LeakOptions{Severity: 0.5} }

func defaultEsophageal() EsophagealOptions { return EsophagealOptions{SpikeBreaths: 3} }

func defaultCardiacOsc() CardiacOscOptions { return CardiacOscOptions{HeartRate: 72} }

func defaultCurareCleft() CurareCleftOptions { return CurareCleftOptions{Depth: 0.3} }
