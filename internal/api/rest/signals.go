package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LARPTech/patient-simulator-sub000/internal/types"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform/capnography"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform/cardiac"
	"github.com/LARPTech/patient-simulator-sub000/internal/waveform/respiratory"
)

// maxSnapshotSeconds caps on-demand synthesis so a single request
// cannot stall the push loops for long.
const maxSnapshotSeconds = 60.0

type SetPatternRequest struct {
	Pattern string          `json:"pattern" binding:"required"`
	Options json.RawMessage `json:"options,omitempty"`
}

// GET /api/v1/signals
func (s *Server) listSignals(c *gin.Context) {
	patterns := s.runner.Patterns()

	out := make([]gin.H, 0, len(patterns))
	for _, sig := range types.AllSignals() {
		p, err := s.runner.Params(sig)
		if err != nil {
			continue
		}
		out = append(out, gin.H{
			"signal":      sig,
			"pattern":     patterns[sig],
			"sample_rate": p.SampleRate,
		})
	}
	c.JSON(http.StatusOK, gin.H{"signals": out})
}

// GET /api/v1/signals/:signal/params
func (s *Server) getSignalParams(c *gin.Context) {
	sig := types.Signal(c.Param("signal"))
	params, err := s.runner.Params(sig)
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("SIGNAL_404", "Unknown signal", err.Error()))
		return
	}
	c.JSON(http.StatusOK, params)
}

// PATCH /api/v1/signals/:signal/params
func (s *Server) updateSignalParams(c *gin.Context) {
	sig := types.Signal(c.Param("signal"))
	if !sig.Valid() {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("SIGNAL_404", "Unknown signal", string(sig)))
		return
	}

	var partial waveform.Partial
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400", "Invalid request body", err.Error()))
		return
	}

	if err := s.runner.UpdateParams(sig, partial); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400", "Invalid parameters", err.Error()))
		return
	}

	params, _ := s.runner.Params(sig)
	c.JSON(http.StatusOK, params)
}

// PUT /api/v1/signals/:signal/pattern
func (s *Server) setSignalPattern(c *gin.Context) {
	sig := types.Signal(c.Param("signal"))
	if !sig.Valid() {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("SIGNAL_404", "Unknown signal", string(sig)))
		return
	}

	var req SetPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400", "Invalid request body", err.Error()))
		return
	}

	if err := s.applyPattern(sig, req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400", "Invalid pattern", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signal":  sig,
		"pattern": s.runner.Patterns()[sig],
	})
}

func (s *Server) applyPattern(sig types.Signal, req SetPatternRequest) error {
	switch sig {
	case types.SignalECG:
		tag := cardiac.Rhythm(req.Pattern)
		if !cardiac.Known(tag) {
			return fmt.Errorf("unknown rhythm %q", req.Pattern)
		}
		opts, err := decodeRhythmOptions(tag, req.Options)
		if err != nil {
			return err
		}
		s.runner.SetRhythm(tag, opts)

	case types.SignalRespiration:
		tag := respiratory.Pattern(req.Pattern)
		if !respiratory.Known(tag) {
			return fmt.Errorf("unknown pattern %q", req.Pattern)
		}
		opts, err := decodeRespiratoryOptions(tag, req.Options)
		if err != nil {
			return err
		}
		s.runner.SetRespiratoryPattern(tag, opts)

	case types.SignalCapnography:
		tag := capnography.Pattern(req.Pattern)
		if !capnography.Known(tag) {
			return fmt.Errorf("unknown pattern %q", req.Pattern)
		}
		opts, err := decodeCapnographyOptions(tag, req.Options)
		if err != nil {
			return err
		}
		s.runner.SetCapnographyPattern(tag, opts)
	}
	return nil
}

// decodeRhythmOptions maps the options payload onto the variant the
// rhythm expects. Tags without settings ignore the payload.
func decodeRhythmOptions(tag cardiac.Rhythm, raw json.RawMessage) (cardiac.Options, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch tag {
	case cardiac.RhythmAFib:
		return decodeInto[cardiac.AFibOptions](raw)
	case cardiac.RhythmAFlutter:
		return decodeInto[cardiac.AFlutterOptions](raw)
	case cardiac.RhythmVTach:
		return decodeInto[cardiac.VTachOptions](raw)
	case cardiac.RhythmWenckebach:
		return decodeInto[cardiac.WenckebachOptions](raw)
	case cardiac.RhythmMobitz2:
		return decodeInto[cardiac.Mobitz2Options](raw)
	case cardiac.RhythmCompleteBlock:
		return decodeInto[cardiac.CompleteBlockOptions](raw)
	case cardiac.RhythmPVC, cardiac.RhythmPAC:
		return decodeInto[cardiac.EctopicOptions](raw)
	case cardiac.RhythmPaced:
		return decodeInto[cardiac.PacedOptions](raw)
	}
	return nil, fmt.Errorf("rhythm %q takes no options", tag)
}

func decodeRespiratoryOptions(tag respiratory.Pattern, raw json.RawMessage) (respiratory.Options, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch tag {
	case respiratory.PatternCheyneStokes:
		return decodeInto[respiratory.CheyneStokesOptions](raw)
	case respiratory.PatternBiot:
		return decodeInto[respiratory.BiotOptions](raw)
	case respiratory.PatternObstructive:
		return decodeInto[respiratory.ObstructiveOptions](raw)
	case respiratory.PatternAgonal:
		return decodeInto[respiratory.AgonalOptions](raw)
	case respiratory.PatternAtaxic:
		return decodeInto[respiratory.AtaxicOptions](raw)
	case respiratory.PatternAssisted:
		return decodeInto[respiratory.AssistedOptions](raw)
	}
	return nil, fmt.Errorf("pattern %q takes no options", tag)
}

func decodeCapnographyOptions(tag capnography.Pattern, raw json.RawMessage) (capnography.Options, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch tag {
	case capnography.PatternObstructive:
		return decodeInto[capnography.ObstructiveOptions](raw)
	case capnography.PatternRebreathing:
		return decodeInto[capnography.RebreathingOptions](raw)
	case capnography.PatternAirwayLeak:
		return decodeInto[capnography.LeakOptions](raw)
	case capnography.PatternEsophageal:
		return decodeInto[capnography.EsophagealOptions](raw)
	case capnography.PatternCardiacOsc:
		return decodeInto[capnography.CardiacOscOptions](raw)
	case capnography.PatternCurareCleft:
		return decodeInto[capnography.CurareCleftOptions](raw)
	}
	return nil, fmt.Errorf("pattern %q takes no options", tag)
}

func decodeInto[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("invalid options: %w", err)
	}
	return out, nil
}

// GET /api/v1/signals/:signal/waveform?seconds=10
func (s *Server) getWaveformSnapshot(c *gin.Context) {
	sig := types.Signal(c.Param("signal"))
	if !sig.Valid() {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("SIGNAL_404", "Unknown signal", string(sig)))
		return
	}

	seconds, err := strconv.ParseFloat(c.DefaultQuery("seconds", "10"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400", "Invalid seconds parameter", err.Error()))
		return
	}
	if seconds <= 0 || seconds > maxSnapshotSeconds {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400",
			fmt.Sprintf("seconds must be in (0, %v]", maxSnapshotSeconds), seconds))
		return
	}

	batch, err := s.runner.Snapshot(sig, seconds)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("SIGNAL_400", "Snapshot failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, batch)
}
