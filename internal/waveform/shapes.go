package waveform

import "math"

// Closed-form sub-waveform primitives shared by the three generators.
// Each takes the time within the parent segment and the segment
// duration; callers guarantee duration > 0 via SafeSpan.

// HalfSine rises from 0 to amp and back over [start, start+dur).
func HalfSine(t, start, dur, amp float64) float64 {
	if t < start || t >= start+dur {
		return 0
	}
	return amp * math.Sin(math.Pi*(t-start)/dur)
}

// Gaussian is a bell bump centered at mu with width sigma.
func Gaussian(t, mu, sigma, amp float64) float64 {
	z := (t - mu) / sigma
	return amp * math.Exp(-0.5*z*z)
}

// RaisedCosine ramps smoothly from 0 to amp over [start, start+dur).
func RaisedCosine(t, start, dur, amp float64) float64 {
	if t < start {
		return 0
	}
	if t >= start+dur {
		return amp
	}
	return amp * 0.5 * (1 - math.Cos(math.Pi*(t-start)/dur))
}

// ExpDecay decays from amp toward 0 with time constant tau, starting
// at start.
func ExpDecay(t, start, tau, amp float64) float64 {
	if t < start {
		return 0
	}
	return amp * math.Exp(-(t-start)/tau)
}

// Sawtooth ramps linearly from -amp to amp over each period.
func Sawtooth(t, period, amp float64) float64 {
	p := Phase(t, period)
	return amp * (2*p - 1)
}
