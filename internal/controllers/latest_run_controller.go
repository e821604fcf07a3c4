package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/modelcheck/internal/services"

	"github.com/gin-gonic/gin"
)

type latestRunController struct{ svc services.RunsService }

func NewLatestRunController(s services.RunsService) *latestRunController {
	return &latestRunController{svc: s}
}

func (h *latestRunController) Handle(c *gin.Context) {
	run, err := h.svc.Latest(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
