package types

// Signal identifies one of the three synthesized biosignals.
type Signal string

const (
	SignalECG         Signal = "ecg"
	SignalRespiration Signal = "respiration"
	SignalCapnography Signal = "capnography"
)

// Valid reports whether s names a known signal.
func (s Signal) Valid() bool {
	switch s {
	case SignalECG, SignalRespiration, SignalCapnography:
		return true
	}
	return false
}

// AllSignals lists every synthesized signal in broadcast order.
func AllSignals() []Signal {
	return []Signal{SignalECG, SignalRespiration, SignalCapnography}
}

// SampleBatch is one broadcast unit of consecutive samples for a
// signal, in that signal's physical unit.
type SampleBatch struct {
	Signal     Signal    `json:"signal"`
	SampleRate float64   `json:"sample_rate"`
	StartTime  float64   `json:"start_time"` // generator seconds
	Samples    []float64 `json:"samples"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
