package monitor

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/api/websocket"
	"github.com/LARPTech/patient-simulator-sub000/internal/config"
	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
	"github.com/LARPTech/patient-simulator-sub000/internal/types"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (b *recordingBroadcaster) Broadcast(msg websocket.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) byType(t websocket.MessageType) []websocket.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []websocket.Message
	for _, m := range b.messages {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func testSignalsConfig() config.SignalsConfig {
	return config.SignalsConfig{
		ECG:         config.SignalConfig{SampleRate: 250, NoiseLevel: 0.02, PushInterval: 10 * time.Millisecond},
		Respiration: config.SignalConfig{SampleRate: 50, NoiseLevel: 0.01, PushInterval: 10 * time.Millisecond},
		Capnography: config.SignalConfig{SampleRate: 50, NoiseLevel: 0.01, PushInterval: 10 * time.Millisecond},
	}
}

func testRunner(t *testing.T) (*Runner, *recordingBroadcaster) {
	t.Helper()
	hub := &recordingBroadcaster{}
	r, err := NewRunner(zap.NewNop(), hub, testSignalsConfig(), 42)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r, hub
}

func TestSnapshotSampleCountAndStartTime(t *testing.T) {
	r, _ := testRunner(t)

	first, err := r.Snapshot(types.SignalECG, 2.0)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(first.Samples) != 500 {
		t.Fatalf("expected 500 samples at 250 Hz over 2s, got %d", len(first.Samples))
	}
	if first.StartTime != 0 {
		t.Fatalf("first snapshot should start at 0, got %v", first.StartTime)
	}

	second, err := r.Snapshot(types.SignalECG, 1.0)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if second.StartTime != 2.0 {
		t.Fatalf("second snapshot should start where the first ended, got %v", second.StartTime)
	}
}

func TestSnapshotRejectsNonPositiveSeconds(t *testing.T) {
	r, _ := testRunner(t)
	if _, err := r.Snapshot(types.SignalECG, 0); err == nil {
		t.Fatal("expected error for zero seconds")
	}
	if _, err := r.Snapshot(types.SignalECG, -1); err == nil {
		t.Fatal("expected error for negative seconds")
	}
}

func TestUnknownSignalRejected(t *testing.T) {
	r, _ := testRunner(t)
	if _, err := r.Snapshot(types.Signal("pleth"), 1); err == nil {
		t.Fatal("expected error for unknown signal")
	}
	if err := r.UpdateParams(types.Signal("pleth"), waveform.Partial{}); err == nil {
		t.Fatal("expected error for unknown signal")
	}
}

func TestArrestStateAnnouncesPatternChanges(t *testing.T) {
	r, hub := testRunner(t)

	s := patient.Normal()
	s.CardiacArrest = true
	r.SetPatientState(s)

	if got := hub.byType(websocket.MessageTypePatientState); len(got) != 1 {
		t.Fatalf("expected one patient_state broadcast, got %d", len(got))
	}

	changed := map[types.Signal]bool{}
	for _, m := range hub.byType(websocket.MessageTypePatternChange) {
		data, ok := m.Data.(websocket.PatternChangeData)
		if !ok {
			t.Fatalf("unexpected pattern change payload %T", m.Data)
		}
		changed[data.Signal] = true
	}
	for _, sig := range types.AllSignals() {
		if !changed[sig] {
			t.Errorf("expected pattern change announcement for %s", sig)
		}
	}

	patterns := r.Patterns()
	if patterns[types.SignalCapnography] != "esophageal_intubation" {
		t.Errorf("arrest should drive capnography to esophageal_intubation, got %s",
			patterns[types.SignalCapnography])
	}
}

func TestResetRestoresNormalPatterns(t *testing.T) {
	r, _ := testRunner(t)

	s := patient.Normal()
	s.CardiacArrest = true
	r.SetPatientState(s)
	r.Reset()

	patterns := r.Patterns()
	if patterns[types.SignalECG] != "sinus" {
		t.Errorf("expected sinus after reset, got %s", patterns[types.SignalECG])
	}
	if patterns[types.SignalRespiration] != "normal" {
		t.Errorf("expected normal respiration after reset, got %s", patterns[types.SignalRespiration])
	}
	if got := r.PatientState(); got.CardiacArrest {
		t.Error("reset should clear cardiac arrest")
	}
}

func TestStartStopPushesSampleBatches(t *testing.T) {
	r, hub := testRunner(t)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.IsRunning() {
		t.Fatal("runner should report running")
	}
	// Second Start must be a no-op
	if err := r.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	r.Stop()
	r.Stop() // idempotent

	batches := hub.byType(websocket.MessageTypeSamples)
	if len(batches) == 0 {
		t.Fatal("expected at least one sample batch broadcast")
	}

	seen := map[types.Signal]bool{}
	for _, m := range batches {
		batch, ok := m.Data.(types.SampleBatch)
		if !ok {
			t.Fatalf("unexpected samples payload %T", m.Data)
		}
		if len(batch.Samples) == 0 {
			t.Errorf("empty batch for %s", batch.Signal)
		}
		seen[batch.Signal] = true
	}
	for _, sig := range types.AllSignals() {
		if !seen[sig] {
			t.Errorf("no batches pushed for %s", sig)
		}
	}
}

func TestDirectPatternOverride(t *testing.T) {
	r, hub := testRunner(t)

	r.SetRhythm("atrial_fibrillation", nil)
	if r.Patterns()[types.SignalECG] != "atrial_fibrillation" {
		t.Fatalf("rhythm override not applied, got %s", r.Patterns()[types.SignalECG])
	}
	if got := hub.byType(websocket.MessageTypePatternChange); len(got) != 1 {
		t.Fatalf("expected one pattern change broadcast, got %d", len(got))
	}

	// Unknown tags keep the prior rhythm and announce nothing
	r.SetRhythm("torsades", nil)
	if r.Patterns()[types.SignalECG] != "atrial_fibrillation" {
		t.Error("unknown rhythm should keep the prior one")
	}
	if got := hub.byType(websocket.MessageTypePatternChange); len(got) != 1 {
		t.Errorf("unknown rhythm should not broadcast, got %d announcements", len(got))
	}
}
