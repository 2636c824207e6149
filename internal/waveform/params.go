package waveform

import "fmt"

// Parameters is the mutable per-generator configuration. Amplitude is
// interpreted in the generator's physical unit (mV for cardiac,
// dimensionless effort for respiration, mmHg for capnography).
type Parameters struct {
	SampleRate float64 // Hz
	Rate       float64 // cycles per minute
	Amplitude  float64
	NoiseLevel float64
	Baseline   float64
	IERatio    float64 // inspiration fraction of one cycle, (0,1)
}

// Partial carries an update for a subset of fields; nil means "keep".
type Partial struct {
	SampleRate *float64 `json:"sample_rate,omitempty"`
	Rate       *float64 `json:"rate,omitempty"`
	Amplitude  *float64 `json:"amplitude,omitempty"`
	NoiseLevel *float64 `json:"noise_level,omitempty"`
	Baseline   *float64 `json:"baseline,omitempty"`
	IERatio    *float64 `json:"ie_ratio,omitempty"`
}

// Merge applies the set fields of p onto dst. Rate and sample rate are
// validated here so the sampling path never sees a non-positive value.
func (p Partial) Merge(dst *Parameters) error {
	if p.SampleRate != nil {
		if *p.SampleRate <= 0 {
			return fmt.Errorf("sample rate must be positive, got %v", *p.SampleRate)
		}
		dst.SampleRate = *p.SampleRate
	}
	if p.Rate != nil {
		if *p.Rate <= 0 {
			return fmt.Errorf("rate must be positive, got %v", *p.Rate)
		}
		dst.Rate = *p.Rate
	}
	if p.Amplitude != nil {
		dst.Amplitude = *p.Amplitude
	}
	if p.NoiseLevel != nil {
		dst.NoiseLevel = *p.NoiseLevel
	}
	if p.Baseline != nil {
		dst.Baseline = *p.Baseline
	}
	if p.IERatio != nil {
		if *p.IERatio <= 0 || *p.IERatio >= 1 {
			return fmt.Errorf("I:E fraction must lie in (0,1), got %v", *p.IERatio)
		}
		dst.IERatio = *p.IERatio
	}
	return nil
}

// CycleLength returns the duration of one cycle in seconds.
func (p Parameters) CycleLength() float64 {
	return 60.0 / p.Rate
}

// SamplePeriod returns the time advanced per pulled sample.
func (p Parameters) SamplePeriod() float64 {
	return 1.0 / p.SampleRate
}
