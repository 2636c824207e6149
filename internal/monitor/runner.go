package monitor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LARPTech/patient-simulator-sub000/internal/api/websocket"
	"github.com/LARPTech/patient-simulator-sub000/internal/config"
	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
	"github.com/LARPTech/patient-simulator-sub000/internal/types"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform/capnography"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform/cardiac"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform/respiratory"
)

// Broadcaster delivers messages to streaming viewers. Satisfied by
// the websocket hub.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Runner owns the patient state and the three signal generators and
// pushes sample batches to viewers on fixed intervals. All generator
// access goes through the runner's mutex, the generators themselves
// are not safe for concurrent use.
type Runner struct {
	logger *zap.Logger
	hub    Broadcaster
	cfg    config.SignalsConfig

	mu       sync.Mutex
	state    patient.State
	ecg      *cardiac.Generator
	resp     *respiratory.Generator
	capno    *capnography.Generator
	produced map[types.Signal]int64 // samples pushed so far

	runMu    sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRunner wires generators seeded deterministically from seed.
// Each generator gets its own noise stream so one signal's draws do
// not shift another's.
func NewRunner(logger *zap.Logger, hub Broadcaster, cfg config.SignalsConfig, seed int64) (*Runner, error) {
	r := &Runner{
		logger:   logger,
		hub:      hub,
		cfg:      cfg,
		state:    patient.Normal(),
		ecg:      cardiac.New(logger, waveform.NewNoise(seed)),
		resp:     respiratory.New(logger, waveform.NewNoise(seed+1)),
		capno:    capnography.New(logger, waveform.NewNoise(seed+2)),
		produced: make(map[types.Signal]int64),
		stopChan: make(chan struct{}),
	}

	for sig, sc := range map[types.Signal]config.SignalConfig{
		types.SignalECG:         cfg.ECG,
		types.SignalRespiration: cfg.Respiration,
		types.SignalCapnography: cfg.Capnography,
	} {
		p := waveform.Partial{
			SampleRate: &sc.SampleRate,
			NoiseLevel: &sc.NoiseLevel,
		}
		if err := r.updateParamsLocked(sig, p); err != nil {
			return nil, fmt.Errorf("configure %s generator: %w", sig, err)
		}
	}

	r.applyStateLocked(r.state)
	return r, nil
}

// Start launches one push loop per signal.
func (r *Runner) Start() error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.running {
		return nil
	}
	r.running = true
	r.stopChan = make(chan struct{})

	loops := []struct {
		sig      types.Signal
		interval time.Duration
	}{
		{types.SignalECG, r.cfg.ECG.PushInterval},
		{types.SignalRespiration, r.cfg.Respiration.PushInterval},
		{types.SignalCapnography, r.cfg.Capnography.PushInterval},
	}
	for _, l := range loops {
		r.wg.Add(1)
		go r.pushLoop(l.sig, l.interval)
	}

	r.logger.Info("Monitor runner started",
		zap.Duration("ecg_interval", r.cfg.ECG.PushInterval),
		zap.Duration("respiration_interval", r.cfg.Respiration.PushInterval),
		zap.Duration("capnography_interval", r.cfg.Capnography.PushInterval))
	return nil
}

// Stop halts the push loops and waits for them to drain.
func (r *Runner) Stop() {
	r.runMu.Lock()
	if !r.running {
		r.runMu.Unlock()
		return
	}
	r.runMu.Unlock()

	close(r.stopChan)
	r.wg.Wait()

	r.runMu.Lock()
	r.running = false
	r.runMu.Unlock()

	r.logger.Info("Monitor runner stopped")
}

// IsRunning gibt an ob die Push-Loops laufen
func (r *Runner) IsRunning() bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.running
}

func (r *Runner) pushLoop(sig types.Signal, interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.hub.Broadcast(websocket.NewSamplesMessage(r.nextBatch(sig, interval)))
		}
	}
}

// nextBatch generates the samples covering one push interval.
func (r *Runner) nextBatch(sig types.Signal, interval time.Duration) types.SampleBatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	rate := r.generator(sig).Params().SampleRate
	start := float64(r.produced[sig]) / rate
	samples := r.generator(sig).GenerateWaveform(interval.Seconds())
	r.produced[sig] += int64(len(samples))

	return types.SampleBatch{
		Signal:     sig,
		SampleRate: rate,
		StartTime:  start,
		Samples:    samples,
	}
}

// signalGenerator is the slice of the generator API the runner needs
// for signal-agnostic plumbing.
type signalGenerator interface {
	Params() waveform.Parameters
	UpdateParams(p waveform.Partial) error
	GenerateWaveform(seconds float64) []float64
	Reset()
}

func (r *Runner) generator(sig types.Signal) signalGenerator {
	switch sig {
	case types.SignalECG:
		return r.ecg
	case types.SignalRespiration:
		return r.resp
	case types.SignalCapnography:
		return r.capno
	}
	return nil
}

// PatientState returns the current clinical state snapshot.
func (r *Runner) PatientState() patient.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetPatientState replaces the clinical state and re-evaluates all
// three generators. Pattern switches caused by the new state are
// announced to viewers.
func (r *Runner) SetPatientState(s patient.State) {
	r.mu.Lock()
	prevRhythm := string(r.ecg.Rhythm())
	prevResp := string(r.resp.Pattern())
	prevCapno := string(r.capno.Pattern())

	r.state = s
	r.applyStateLocked(s)

	changes := []struct {
		sig      types.Signal
		prev, cur string
	}{
		{types.SignalECG, prevRhythm, string(r.ecg.Rhythm())},
		{types.SignalRespiration, prevResp, string(r.resp.Pattern())},
		{types.SignalCapnography, prevCapno, string(r.capno.Pattern())},
	}
	r.mu.Unlock()

	r.hub.Broadcast(websocket.NewMessage(websocket.MessageTypePatientState, s))
	for _, ch := range changes {
		if ch.prev != ch.cur {
			r.hub.Broadcast(websocket.NewPatternChangeMessage(ch.sig, ch.cur, ch.prev))
		}
	}
}

func (r *Runner) applyStateLocked(s patient.State) {
	r.ecg.ApplyPatientState(s)
	r.resp.ApplyPatientState(s)
	r.capno.ApplyPatientState(s)
}

// SetRhythm forces the ECG rhythm directly, bypassing the clinical
// cascade until the next patient state update.
func (r *Runner) SetRhythm(tag cardiac.Rhythm, opts cardiac.Options) {
	r.mu.Lock()
	prev := string(r.ecg.Rhythm())
	r.ecg.SetRhythm(tag, opts)
	cur := string(r.ecg.Rhythm())
	r.mu.Unlock()

	if prev != cur {
		r.hub.Broadcast(websocket.NewPatternChangeMessage(types.SignalECG, cur, prev))
	}
}

// SetRespiratoryPattern forces the respiratory pattern directly.
func (r *Runner) SetRespiratoryPattern(tag respiratory.Pattern, opts respiratory.Options) {
	r.mu.Lock()
	prev := string(r.resp.Pattern())
	r.resp.SetPattern(tag, opts)
	cur := string(r.resp.Pattern())
	r.mu.Unlock()

	if prev != cur {
		r.hub.Broadcast(websocket.NewPatternChangeMessage(types.SignalRespiration, cur, prev))
	}
}

// SetCapnographyPattern forces the capnography pattern directly.
func (r *Runner) SetCapnographyPattern(tag capnography.Pattern, opts capnography.Options) {
	r.mu.Lock()
	prev := string(r.capno.Pattern())
	r.capno.SetPattern(tag, opts)
	cur := string(r.capno.Pattern())
	r.mu.Unlock()

	if prev != cur {
		r.hub.Broadcast(websocket.NewPatternChangeMessage(types.SignalCapnography, cur, prev))
	}
}

// UpdateParams merges partial generator parameters for one signal.
func (r *Runner) UpdateParams(sig types.Signal, p waveform.Partial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateParamsLocked(sig, p)
}

func (r *Runner) updateParamsLocked(sig types.Signal, p waveform.Partial) error {
	gen := r.generator(sig)
	if gen == nil {
		return fmt.Errorf("unknown signal %q", sig)
	}
	return gen.UpdateParams(p)
}

// Params returns the current parameters of one signal's generator.
func (r *Runner) Params(sig types.Signal) (waveform.Parameters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gen := r.generator(sig)
	if gen == nil {
		return waveform.Parameters{}, fmt.Errorf("unknown signal %q", sig)
	}
	return gen.Params(), nil
}

// Snapshot synthesizes seconds worth of samples from the live
// generator. The live stream continues from where the snapshot ends.
func (r *Runner) Snapshot(sig types.Signal, seconds float64) (types.SampleBatch, error) {
	if seconds <= 0 || math.IsNaN(seconds) {
		return types.SampleBatch{}, fmt.Errorf("seconds must be positive, got %v", seconds)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	gen := r.generator(sig)
	if gen == nil {
		return types.SampleBatch{}, fmt.Errorf("unknown signal %q", sig)
	}

	rate := gen.Params().SampleRate
	start := float64(r.produced[sig]) / rate
	samples := gen.GenerateWaveform(seconds)
	r.produced[sig] += int64(len(samples))

	return types.SampleBatch{
		Signal:     sig,
		SampleRate: rate,
		StartTime:  start,
		Samples:    samples,
	}, nil
}

// Patterns reports the active pattern tag of every signal.
func (r *Runner) Patterns() map[types.Signal]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[types.Signal]string{
		types.SignalECG:         string(r.ecg.Rhythm()),
		types.SignalRespiration: string(r.resp.Pattern()),
		types.SignalCapnography: string(r.capno.Pattern()),
	}
}

// Reset reverts all generators to their idle rhythm and re-applies a
// normal patient.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.state = patient.Normal()
	r.ecg.Reset()
	r.resp.Reset()
	r.capno.Reset()
	r.applyStateLocked(r.state)
	s := r.state
	r.mu.Unlock()

	r.hub.Broadcast(websocket.NewMessage(websocket.MessageTypePatientState, s))
}
