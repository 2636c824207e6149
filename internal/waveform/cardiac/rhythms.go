package cardiac

// Rhythm identifies one ECG rhythm state.
type Rhythm string

const (
	RhythmSinus         Rhythm = "sinus"
	RhythmSinusBrady    Rhythm = "sinus_bradycardia"
	RhythmSinusTachy    Rhythm = "sinus_tachycardia"
	RhythmAFib          Rhythm = "atrial_fibrillation"
	RhythmAFlutter      Rhythm = "atrial_flutter"
	RhythmVTach         Rhythm = "ventricular_tachycardia"
	RhythmVFib          Rhythm = "ventricular_fibrillation"
	RhythmAsystole      Rhythm = "asystole"
	RhythmFirstDegree   Rhythm = "first_degree_block"
	RhythmWenckebach    Rhythm = "second_degree_mobitz1"
	RhythmMobitz2       Rhythm = "second_degree_mobitz2"
	RhythmCompleteBlock Rhythm = "third_degree_block"
	RhythmPVC           Rhythm = "pvc"
	RhythmPAC           Rhythm = "pac"
	RhythmPaced         Rhythm = "paced"
)

var knownRhythms = map[Rhythm]bool{
	RhythmSinus:         true,
	RhythmSinusBrady:    true,
	RhythmSinusTachy:    true,
	RhythmAFib:          true,
	RhythmAFlutter:      true,
	RhythmVTach:         true,
	RhythmVFib:          true,
	RhythmAsystole:      true,
	RhythmFirstDegree:   true,
	RhythmWenckebach:    true,
	RhythmMobitz2:       true,
	RhythmCompleteBlock: true,
	RhythmPVC:           true,
	RhythmPAC:           true,
	RhythmPaced:         true,
}

// Known reports whether tag names a supported rhythm.
func Known(tag Rhythm) bool { return knownRhythms[tag] }

// Options is the tagged union of per-rhythm settings. Each variant
// carries exactly the fields its rhythm needs; rhythms with no
// settings take nil.
type Options interface {
	rhythmOptions()
}

// AFibOptions controls atrial fibrillation.
type AFibOptions struct {
	// Irregularity is the fractional RR perturbation, [0,1].
	Irregularity float64 `json:"irregularity"`
	// FWaveAmplitude is the fibrillatory baseline amplitude in mV.
	FWaveAmplitude float64 `json:"f_wave_amplitude"`
}

// AFlutterOptions controls atrial flutter.
type AFlutterOptions struct {
	AtrialRate      float64 `json:"atrial_rate"`      // flutter waves per minute
	ConductionRatio int     `json:"conduction_ratio"` // atrial waves per conducted QRS
}

// VTachOptions controls ventricular tachycardia.
type VTachOptions struct {
	Rate float64 `json:"rate"` // bpm
}

// WenckebachOptions controls Mobitz I conduction.
type WenckebachOptions struct {
	PRIncrement float64 `json:"pr_increment"` // seconds added per conducted beat
	MaxCount    int     `json:"max_count"`    // conducted beats before the dropped one
}

// Mobitz2Options controls Mobitz II conduction.
type Mobitz2Options struct {
	ConductionRatio int `json:"conduction_ratio"` // every Nth beat is dropped
}

// CompleteBlockOptions controls third-degree block.
type CompleteBlockOptions struct {
	AtrialRate float64 `json:"atrial_rate"` // independent P-wave rate, bpm
	EscapeRate float64 `json:"escape_rate"` // independent ventricular rate, bpm
}

// EctopicOptions controls PVC and PAC substrates.
type EctopicOptions struct {
	// Probability that a scheduled ectopic actually fires, [0,1].
	Probability float64 `json:"probability"`
}

// PacedOptions controls the paced rhythm.
type PacedOptions struct {
	Rate float64 `json:"rate"` // pacer rate, bpm
}

func (AFibOptions) rhythmOptions()          {}
func (AFlutterOptions) rhythmOptions()      {}
func (VTachOptions) rhythmOptions()         {}
func (WenckebachOptions) rhythmOptions()    {}
func (Mobitz2Options) rhythmOptions()       {}
func (CompleteBlockOptions) rhythmOptions() {}
func (EctopicOptions) rhythmOptions()       {}
func (PacedOptions) rhythmOptions()         {}

func defaultAFib() AFibOptions {
	return AFibOptions{Irregularity: 0.25, FWaveAmplitude: 0.08}
}

func defaultAFlutter() AFlutterOptions {
	return AFlutterOptions{AtrialRate: 300, ConductionRatio: 2}
}

func defaultVTach() VTachOptions { return VTachOptions{Rate: 180} }

func defaultWenckebach() WenckebachOptions {
	return WenckebachOptions{PRIncrement: 0.04, MaxCount: 4}
}

func defaultMobitz2() Mobitz2Options { return Mobitz2Options{ConductionRatio: 3} }

func defaultCompleteBlock() CompleteBlockOptions {
	return CompleteBlockOptions{AtrialRate: 80, EscapeRate: 35}
}

func defaultEctopic() EctopicOptions { return EctopicOptions{Probability: 0.4} }

func defaultPaced() PacedOptions { return PacedOptions{Rate: 70} }
