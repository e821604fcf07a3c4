package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker is satisfied by every ledger backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type healthController struct{ ledger HealthChecker }

func NewHealthController(ledger HealthChecker) *healthController {
	return &healthController{ledger: ledger}
}

func (h *healthController) Handle(c *gin.Context) {
	if err := h.ledger.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
