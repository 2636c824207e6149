package cardiac

import (
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

// Morphology holds the segment durations (seconds) and amplitudes (mV)
// of one PQRST complex. A beat's value is the sum of the sub-waves at
// the time since beat onset.
type Morphology struct {
	PDur, PAmp   float64
	PRInterval   float64 // P onset to QRS onset
	QRSDur, RAmp float64
	QAmpRatio    float64 // Q amplitude as a fraction of R (negative)
	SAmpRatio    float64 // S amplitude as a fraction of R (negative)
	STDur        float64
	STOffset     float64 // ST-segment baseline shift
	TDur, TAmp   float64
	UDur, UAmp   float64 // U wave; UAmp == 0 disables it
	HasP         bool
	HasQRS       bool
}

// normalMorphology is the adult-normal complex at 1 mV R amplitude,
// scaled later by the configured amplitude.
func normalMorphology() Morphology {
	return Morphology{
		PDur:       0.09,
		PAmp:       0.15,
		PRInterval: 0.16,
		QRSDur:     0.08,
		RAmp:       1.0,
		QAmpRatio:  -0.25,
		SAmpRatio:  -0.25,
		STDur:      0.10,
		TDur:       0.16,
		TAmp:       0.30,
		UDur:       0.08,
		HasP:       true,
		HasQRS:     true,
	}
}

// pvcMorphology is the ventricular ectopic complex: no P, widened QRS,
// inverted T, larger voltage.
func pvcMorphology() Morphology {
	m := normalMorphology()
	m.HasP = false
	m.PRInterval = 0.02
	m.QRSDur = 0.16
	m.RAmp = 1.3
	m.TAmp = -0.35
	return m
}

// pacMorphology is the atrial ectopic complex: early abnormal P with a
// normal narrow QRS.
func pacMorphology() Morphology {
	m := normalMorphology()
	m.PAmp = 0.10
	m.PDur = 0.06
	m.PRInterval = 0.14
	return m
}

// vtachMorphology is the wide monomorphic VT complex.
func vtachMorphology() Morphology {
	m := normalMorphology()
	m.HasP = false
	m.PRInterval = 0.0
	m.QRSDur = 0.16
	m.RAmp = 1.2
	m.STDur = 0.02
	m.TDur = 0.14
	m.TAmp = -0.40
	return m
}

// pacedMorphology is the ventricular-paced complex that follows the
// pacing spike.
func pacedMorphology() Morphology {
	m := normalMorphology()
	m.HasP = false
	m.PRInterval = 0.04
	m.QRSDur = 0.14
	m.RAmp = 0.9
	m.TAmp = -0.25
	return m
}

// Overlay is the electrolyte-driven morphology adjustment applied on
// top of whatever rhythm is active.
type Overlay struct {
	QRSWidthFactor float64
	PAmpFactor     float64
	TAmpFactor     float64
	QTFactor       float64 // stretches ST+T
	EnableUWave    bool
}

func neutralOverlay() Overlay {
	return Overlay{QRSWidthFactor: 1, PAmpFactor: 1, TAmpFactor: 1, QTFactor: 1}
}

func (o Overlay) isNeutral() bool {
	return o.QRSWidthFactor == 1 && o.PAmpFactor == 1 && o.TAmpFactor == 1 &&
		o.QTFactor == 1 && !o.EnableUWave
}

// apply returns m adjusted by the overlay.
func (o Overlay) apply(m Morphology) Morphology {
	m.QRSDur *= o.QRSWidthFactor
	m.PAmp *= o.PAmpFactor
	m.TAmp *= o.TAmpFactor
	m.STDur *= o.QTFactor
	m.TDur *= o.QTFactor
	if o.EnableUWave && m.UAmp == 0 {
		m.UAmp = 0.08
	}
	return m
}

// totalDur is the active portion of the complex; the remainder of the
// RR interval is electrical diastole at baseline.
func (m Morphology) totalDur() float64 {
	d := m.PRInterval + m.QRSDur + m.STDur + m.TDur
	if m.UAmp != 0 {
		d += m.UDur
	}
	return d
}

// fitTo compresses the complex so it occupies at most 90% of the RR
// interval at fast rates.
func (m Morphology) fitTo(rr float64) Morphology {
	limit := 0.9 * rr
	total := m.totalDur()
	if total <= limit {
		return m
	}
	k := limit / waveform.SafeSpan(0, total)
	m.PDur *= k
	m.PRInterval *= k
	m.QRSDur *= k
	m.STDur *= k
	m.TDur *= k
	m.UDur *= k
	return m
}

// value returns the complex voltage at t seconds after beat onset,
// before amplitude scaling. The P wave and T wave are half-sines, the
// QRS is a negative-positive-negative triplet with Q and S as fixed
// fractions of R.
func (m Morphology) value(t float64) float64 {
	var v float64

	if m.HasP && m.PDur > 0 {
		v += waveform.HalfSine(t, 0, m.PDur, m.PAmp)
	}

	if m.HasQRS {
		qrsStart := m.PRInterval
		qDur := 0.25 * m.QRSDur
		rDur := 0.50 * m.QRSDur
		sDur := 0.25 * m.QRSDur
		v += waveform.HalfSine(t, qrsStart, qDur, m.QAmpRatio*m.RAmp)
		v += waveform.HalfSine(t, qrsStart+qDur, rDur, m.RAmp)
		v += waveform.HalfSine(t, qrsStart+qDur+rDur, sDur, m.SAmpRatio*m.RAmp)

		stStart := qrsStart + m.QRSDur
		if m.STOffset != 0 && t >= stStart && t < stStart+m.STDur {
			v += m.STOffset
		}

		tStart := stStart + m.STDur
		v += waveform.HalfSine(t, tStart, m.TDur, m.TAmp)

		if m.UAmp != 0 {
			v += waveform.HalfSine(t, tStart+m.TDur, m.UDur, m.UAmp)
		}
	}

	return v
}
