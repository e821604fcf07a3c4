package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/modelcheck/pkg/persistence"

	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
