package controllers

import (
	"net/http"
	"strings"

	"github.com/osvaldoandrade/modelcheck/internal/services"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"github.com/gin-gonic/gin"
)

type runResultsController struct{ svc services.RunsService }

func NewRunResultsController(s services.RunsService) *runResultsController {
	return &runResultsController{svc: s}
}

// Handle lists the results of a run. ?outcome=ERRORED narrows the list.
func (h *runResultsController) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	run, results, err := h.svc.Results(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if want := strings.ToUpper(strings.TrimSpace(c.Query("outcome"))); want != "" {
		filtered := make([]domain.Result, 0, len(results))
		for _, r := range results {
			if string(r.Outcome) == want {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "results": results})
}
