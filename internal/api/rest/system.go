package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	_, _, _, playing := s.player.Status()

	c.JSON(http.StatusOK, gin.H{
		"running":           s.runner.IsRunning(),
		"uptime_seconds":    int(time.Since(s.startedAt).Seconds()),
		"connected_clients": s.wsHub.GetClientCount(),
		"scenario_playing":  playing,
		"patterns":          s.runner.Patterns(),
	})
}
