package controllers

import (
	"net/http"
	"strings"

	"github.com/osvaldoandrade/modelcheck/internal/services"

	"github.com/gin-gonic/gin"
)

type getRunController struct{ svc services.RunsService }

func NewGetRunController(s services.RunsService) *getRunController {
	return &getRunController{svc: s}
}

func (h *getRunController) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	run, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
