package app

import (
	"github.com/osvaldoandrade/modelcheck/internal/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", controllers.NewHealthController(app.Ledger).Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1")
	{
		v1.GET("/runs/latest", controllers.NewLatestRunController(app.Runs).Handle)
		v1.GET("/runs/:id", controllers.NewGetRunController(app.Runs).Handle)
		v1.GET("/runs/:id/results", controllers.NewRunResultsController(app.Runs).Handle)
	}
}
