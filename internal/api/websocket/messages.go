package websocket

import (
	"time"

	"github.com/LARPTech/patient-simulator-sub000/internal/types"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Waveform streaming
	MessageTypeSamples MessageType = "samples"

	// Simulation state messages
	MessageTypePatientState  MessageType = "patient_state"
	MessageTypePatternChange MessageType = "pattern_change"
	MessageTypeScenarioPhase MessageType = "scenario_phase"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// PatternChangeData announces a generator switching pattern
type PatternChangeData struct {
	Signal   types.Signal `json:"signal"`
	Pattern  string       `json:"pattern"`
	Previous string       `json:"previous,omitempty"`
}

// ScenarioPhaseData announces the scenario player entering a phase
type ScenarioPhaseData struct {
	Scenario string `json:"scenario"`
	Phase    string `json:"phase"`
	Index    int    `json:"index"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Helper functions for creating specific message types

func NewSamplesMessage(batch types.SampleBatch) Message {
	return NewMessage(MessageTypeSamples, batch)
}

func NewPatternChangeMessage(signal types.Signal, pattern, previous string) Message {
	return NewMessage(MessageTypePatternChange, PatternChangeData{
		Signal:   signal,
		Pattern:  pattern,
		Previous: previous,
	})
}

func NewScenarioPhaseMessage(scenario, phase string, index int) Message {
	return NewMessage(MessageTypeScenarioPhase, ScenarioPhaseData{
		Scenario: scenario,
		Phase:    phase,
		Index:    index,
	})
}
