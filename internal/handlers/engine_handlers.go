package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ============================================================================
// Decorative engine endpoints kept for frontend compatibility. They carry
// no state: the relay engine processes each withdrawal independently.
// ============================================================================

type engineControlRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// StartEngineHandler acknowledges an engine start request
// POST /api/engine/start
func StartEngineHandler(c *gin.Context) {
	var req engineControlRequest
	_ = c.ShouldBindJSON(&req)
	logrus.WithField("wallet", strings.ToLower(req.WalletAddress)).Info("Engine started")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StopEngineHandler acknowledges an engine stop request
// POST /api/engine/stop
func StopEngineHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EngineMetricsHandler returns the fixed metrics shape the frontend expects
// GET /api/engine/metrics
func EngineMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"hourlyRate":      45000.0,
		"dailyProfit":     1080000.0,
		"activePositions": 32,
	})
}
