package scenario

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/api/websocket"
	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
)

const arrestScenario = `name: witnessed_arrest
description: Sudden arrest with bystander CPR after one minute.
phases:
  - name: baseline
    duration_seconds: 2
  - name: arrest
    duration_seconds: 2
    patient:
      cardiac_arrest: true
      spo2: 70
  - name: cpr
    patient:
      cardiac_arrest: true
      cpr_in_progress: true
      intubated: true
`

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
}

func TestLoadFillsPatientDefaults(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "witnessed_arrest", arrestScenario)

	loader, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	sc, err := loader.Load("witnessed_arrest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if sc.ID == "" {
		t.Error("loader should assign an id when the file has none")
	}
	if len(sc.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(sc.Phases))
	}

	baseline := sc.Phases[0].Patient
	if baseline != patient.Normal() {
		t.Errorf("phase without patient block should be adult-normal, got %+v", baseline)
	}

	arrest := sc.Phases[1].Patient
	if !arrest.CardiacArrest {
		t.Error("arrest phase should set cardiac_arrest")
	}
	if arrest.SpO2 != 70 {
		t.Errorf("expected spo2 70, got %v", arrest.SpO2)
	}
	if arrest.HeartRate != 72 {
		t.Errorf("omitted heart_rate should keep the normal default, got %v", arrest.HeartRate)
	}
}

func TestLoadCachesScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "witnessed_arrest", arrestScenario)

	loader, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	first, err := loader.Load("witnessed_arrest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := loader.Load("witnessed_arrest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("second load should hit the cache")
	}

	loader.ClearCache()
	third, err := loader.Load("witnessed_arrest")
	if err != nil {
		t.Fatalf("Load after ClearCache: %v", err)
	}
	if third == first {
		t.Error("load after ClearCache should re-read the file")
	}
}

func TestLoadRejectsInvalidScenario(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"no_phases":     "name: empty\nphases: []\n",
		"missing_name":  "phases:\n  - name: only\n",
		"bad_severity":  "name: x\nphases:\n  - name: p\n    patient:\n      cns_injury: 1.5\n",
		"unknown_field": "name: x\nphases:\n  - name: p\n    patient:\n      blood_pressure: 120\n",
		"bad_vent_mode": "name: x\nphases:\n  - name: p\n    patient:\n      ventilator_mode: jet\n",
		"negative_spo2": "name: x\nphases:\n  - name: p\n    patient:\n      spo2: -3\n",
	}

	for name, body := range cases {
		writeScenario(t, dir, name, body)
	}

	loader, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	for name := range cases {
		if _, err := loader.Load(name); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingScenario(t *testing.T) {
	loader, err := NewLoader([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if _, err := loader.Load("nope"); err == nil {
		t.Fatal("expected error for missing scenario")
	}
}

func TestListFindsAndSortsScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "zulu", arrestScenario)
	writeScenario(t, dir, "alpha", arrestScenario)

	loader, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	names := loader.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zulu" {
		t.Fatalf("unexpected list %v", names)
	}
}

type fakeApplier struct {
	mu     sync.Mutex
	states []patient.State
}

func (a *fakeApplier) SetPatientState(s patient.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states = append(a.states, s)
}

func (a *fakeApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.states)
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (b *fakeBroadcaster) Broadcast(msg websocket.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func TestPlayerWalksPhases(t *testing.T) {
	sc := &Scenario{
		Name: "quick",
		Phases: []Phase{
			{Name: "one", DurationSeconds: 0.01, Patient: patient.Normal()},
			{Name: "two", DurationSeconds: 0.01, Patient: patient.Normal()},
		},
	}

	target := &fakeApplier{}
	hub := &fakeBroadcaster{}
	player := NewPlayer(zap.NewNop(), target, hub)

	if err := player.Play(sc); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for target.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("player applied %d states, expected 2", target.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPlayerHoldPhaseStops(t *testing.T) {
	sc := &Scenario{
		Name: "hold",
		Phases: []Phase{
			{Name: "forever", DurationSeconds: 0, Patient: patient.Normal()},
		},
	}

	target := &fakeApplier{}
	player := NewPlayer(zap.NewNop(), target, &fakeBroadcaster{})

	if err := player.Play(sc); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, phase, _, ok := player.Status(); ok && phase == "forever" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("player never entered hold phase")
		case <-time.After(5 * time.Millisecond):
		}
	}

	player.Stop()
	if _, _, _, ok := player.Status(); ok {
		t.Error("player should be idle after Stop")
	}
}

func TestPlayRejectsConcurrentScenario(t *testing.T) {
	sc := &Scenario{
		Name:   "hold",
		Phases: []Phase{{Name: "forever", Patient: patient.Normal()}},
	}

	player := NewPlayer(zap.NewNop(), &fakeApplier{}, &fakeBroadcaster{})
	if err := player.Play(sc); err != nil {
		t.Fatalf("Play: %v", err)
	}
	defer player.Stop()

	if err := player.Play(sc); err == nil {
		t.Fatal("expected error starting a second scenario")
	}
}
