package patient

// VentilatorMode identifies the active mechanical ventilation mode, if any.
type VentilatorMode string

const (
	VentModeOff  VentilatorMode = "off"
	VentModeAC   VentilatorMode = "assist_control"
	VentModeSIMV VentilatorMode = "simv"
	VentModePSV  VentilatorMode = "pressure_support"
	VentModeCPAP VentilatorMode = "cpap"
)

// Active reports whether the mode drives machine breaths.
func (m VentilatorMode) Active() bool {
	return m != "" && m != VentModeOff
}

// State is the clinical snapshot the waveform generators consume.
// It is owned and mutated by the physiology model upstream; the
// generators treat it as read-only.
type State struct {
	HeartRate       float64 `json:"heart_rate" yaml:"heart_rate"`             // bpm
	RespiratoryRate float64 `json:"respiratory_rate" yaml:"respiratory_rate"` // breaths/min
	SpO2            float64 `json:"spo2" yaml:"spo2"`                         // %
	ETCO2           float64 `json:"etco2" yaml:"etco2"`                       // mmHg
	CardiacOutput   float64 `json:"cardiac_output" yaml:"cardiac_output"`     // L/min

	Intubated      bool           `json:"intubated" yaml:"intubated"`
	VentilatorMode VentilatorMode `json:"ventilator_mode" yaml:"ventilator_mode"`

	// Severity scalars, all in [0,1].
	AirwayObstruction     float64 `json:"airway_obstruction" yaml:"airway_obstruction"`
	RespiratoryDepression float64 `json:"respiratory_depression" yaml:"respiratory_depression"`
	RespiratoryDistress   float64 `json:"respiratory_distress" yaml:"respiratory_distress"`
	MuscleWeakness        float64 `json:"muscle_weakness" yaml:"muscle_weakness"`
	CNSInjury             float64 `json:"cns_injury" yaml:"cns_injury"`
	MetabolicAcidosis     float64 `json:"metabolic_acidosis" yaml:"metabolic_acidosis"`
	CardiacDepression     float64 `json:"cardiac_depression" yaml:"cardiac_depression"`

	// Electrolytes in mmol/L.
	Potassium float64 `json:"potassium" yaml:"potassium"`
	Calcium   float64 `json:"calcium" yaml:"calcium"`

	CardiacArrest bool `json:"cardiac_arrest" yaml:"cardiac_arrest"`
	CPRInProgress bool `json:"cpr_in_progress" yaml:"cpr_in_progress"`
}

// Normal returns an adult-normal snapshot, the baseline every
// scenario starts from.
func Normal() State {
	return State{
		HeartRate:       72,
		RespiratoryRate: 14,
		SpO2:            98,
		ETCO2:           38,
		CardiacOutput:   5.0,
		VentilatorMode:  VentModeOff,
		Potassium:       4.2,
		Calcium:         2.4,
	}
}
