package scenario

import (
	"gopkg.in/yaml.v3"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
)

// Scenario is a scripted sequence of clinical states, played back
// phase by phase against the monitor runner.
type Scenario struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Phases      []Phase `yaml:"phases" json:"phases"`
}

// Phase holds one clinical state and how long to stay in it. A
// duration of 0 means hold until the scenario is stopped.
type Phase struct {
	Name            string        `yaml:"name" json:"name"`
	DurationSeconds float64       `yaml:"duration_seconds" json:"duration_seconds"`
	Patient         patient.State `yaml:"patient" json:"patient"`
}

// UnmarshalYAML fills omitted patient fields from the adult-normal
// baseline, so scenario files only spell out the deviations.
func (p *Phase) UnmarshalYAML(value *yaml.Node) error {
	type rawPhase Phase
	out := rawPhase{Patient: patient.Normal()}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*p = Phase(out)
	return nil
}
