package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LARPTech/patient-simulator-sub000/internal/types"
)

// GET /api/v1/scenarios
func (s *Server) listScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": s.loader.List()})
}

// POST /api/v1/scenarios/:name/play
func (s *Server) playScenario(c *gin.Context) {
	name := c.Param("name")

	sc, err := s.loader.Load(name)
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("SCENARIO_404", "Scenario not found or invalid", err.Error()))
		return
	}

	if err := s.player.Play(sc); err != nil {
		c.JSON(http.StatusConflict, types.NewErrorResponse("SCENARIO_409", "Cannot start scenario", err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"scenario": sc.Name,
		"id":       sc.ID,
		"phases":   len(sc.Phases),
	})
}

// POST /api/v1/scenarios/stop
func (s *Server) stopScenario(c *gin.Context) {
	s.player.Stop()
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// GET /api/v1/scenarios/status
func (s *Server) getScenarioStatus(c *gin.Context) {
	name, phase, index, ok := s.player.Status()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"playing": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playing":     true,
		"scenario":    name,
		"phase":       phase,
		"phase_index": index,
	})
}
