package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LARPTech/patient-simulator-sub000/internal/patient"
	"github.com/LARPTech/patient-simulator-sub000/internal/types"
)

// GET /api/v1/patient
func (s *Server) getPatientState(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.PatientState())
}

// PUT /api/v1/patient
//
// The body is merged over the current state, omitted fields keep
// their value. A running scenario will overwrite manual edits on its
// next phase.
func (s *Server) setPatientState(c *gin.Context) {
	state := s.runner.PatientState()
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("PATIENT_400", "Invalid request body", err.Error()))
		return
	}

	if err := validatePatientState(state); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("PATIENT_400", "Invalid patient state", err.Error()))
		return
	}

	s.runner.SetPatientState(state)
	c.JSON(http.StatusOK, state)
}

// POST /api/v1/patient/reset
func (s *Server) resetPatient(c *gin.Context) {
	s.player.Stop()
	s.runner.Reset()
	c.JSON(http.StatusOK, s.runner.PatientState())
}

func validatePatientState(st patient.State) error {
	checks := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"heart_rate", st.HeartRate, 0, 300},
		{"respiratory_rate", st.RespiratoryRate, 0, 80},
		{"spo2", st.SpO2, 0, 100},
		{"etco2", st.ETCO2, 0, 120},
		{"cardiac_output", st.CardiacOutput, 0, 15},
		{"airway_obstruction", st.AirwayObstruction, 0, 1},
		{"respiratory_depression", st.RespiratoryDepression, 0, 1},
		{"respiratory_distress", st.RespiratoryDistress, 0, 1},
		{"muscle_weakness", st.MuscleWeakness, 0, 1},
		{"cns_injury", st.CNSInjury, 0, 1},
		{"metabolic_acidosis", st.MetabolicAcidosis, 0, 1},
		{"cardiac_depression", st.CardiacDepression, 0, 1},
		{"potassium", st.Potassium, 0, 12},
		{"calcium", st.Calcium, 0, 6},
	}
	for _, ch := range checks {
		if ch.value < ch.min || ch.value > ch.max {
			return fieldRangeError(ch.name, ch.value, ch.min, ch.max)
		}
	}
	switch st.VentilatorMode {
	case "", patient.VentModeOff, patient.VentModeAC, patient.VentModeSIMV,
		patient.VentModePSV, patient.VentModeCPAP:
	default:
		return fmt.Errorf("unknown ventilator_mode %q", st.VentilatorMode)
	}
	return nil
}

func fieldRangeError(name string, value, min, max float64) error {
	return fmt.Errorf("%s must be in [%v, %v], got %v", name, min, max, value)
}
