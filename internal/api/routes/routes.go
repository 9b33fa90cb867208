package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/api/handlers"
)

type Deps struct {
	Calc     *handlers.CalcHandler
	Analysis *handlers.AnalysisHandler
	Voice    *handlers.VoiceHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/rules", d.Calc.Rules)
	api.GET("/snapshot", d.Calc.Snapshot)
	api.POST("/input/amount", d.Calc.SetAmount)
	api.POST("/input/mode", d.Calc.SetMode)
	api.POST("/input/clear", d.Calc.Clear)
	api.POST("/analysis", d.Analysis.Run)

	// WebSocket voice bridge
	r.GET("/ws/voice", d.Voice.SessionWS)
}
