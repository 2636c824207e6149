package scenario

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/api/websocket"
	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
)

// Applier receives the clinical state of each phase. Satisfied by the
// monitor runner.
type Applier interface {
	SetPatientState(s patient.State)
}

// Broadcaster announces phase transitions to viewers.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Player walks a scenario's phases on their schedule and applies each
// phase's patient state to the target. Only one scenario plays at a
// time.
type Player struct {
	logger *zap.Logger
	target Applier
	hub    Broadcaster

	mu       sync.Mutex
	current  *Scenario
	phaseIdx int
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPlayer(logger *zap.Logger, target Applier, hub Broadcaster) *Player {
	return &Player{
		logger: logger,
		target: target,
		hub:    hub,
	}
}

// Play starts scenario playback. Fails if another scenario is still
// running, stop it first.
func (p *Player) Play(sc *Scenario) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("scenario %q still running", p.current.Name)
	}
	if len(sc.Phases) == 0 {
		return fmt.Errorf("scenario %q has no phases", sc.Name)
	}

	p.current = sc
	p.phaseIdx = 0
	p.running = true
	p.stopChan = make(chan struct{})
	p.wg.Add(1)

	go p.run(sc, p.stopChan)

	p.logger.Info("Scenario started",
		zap.String("scenario", sc.Name),
		zap.Int("phases", len(sc.Phases)))
	return nil
}

// Stop aborts playback. The patient keeps the last applied state.
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stopChan := p.stopChan
	p.mu.Unlock()

	close(stopChan)
	p.wg.Wait()
}

// Status reports the playing scenario and phase, or ok=false when
// idle.
func (p *Player) Status() (scenario string, phase string, index int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.current == nil {
		return "", "", 0, false
	}
	return p.current.Name, p.current.Phases[p.phaseIdx].Name, p.phaseIdx, true
}

func (p *Player) run(sc *Scenario, stopChan chan struct{}) {
	defer p.wg.Done()
	defer p.finish(sc)

	for i, phase := range sc.Phases {
		p.mu.Lock()
		p.phaseIdx = i
		p.mu.Unlock()

		p.target.SetPatientState(phase.Patient)
		p.hub.Broadcast(websocket.NewScenarioPhaseMessage(sc.Name, phase.Name, i))
		p.logger.Info("Scenario phase entered",
			zap.String("scenario", sc.Name),
			zap.String("phase", phase.Name),
			zap.Float64("duration_seconds", phase.DurationSeconds))

		if phase.DurationSeconds <= 0 {
			// Hold until stopped
			<-stopChan
			return
		}

		select {
		case <-stopChan:
			return
		case <-time.After(time.Duration(phase.DurationSeconds * float64(time.Second))):
		}
	}
}

func (p *Player) finish(sc *Scenario) {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.logger.Info("Scenario finished", zap.String("scenario", sc.Name))
}
