package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.tetrecs/internal/api"
	"sudooom.tetrecs/internal/config"
	"sudooom.tetrecs/internal/health"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg config.HTTPConfig,
	checker *health.Checker,
	scoreHandler *api.ScoreHandler,
	resultHandler *api.ResultHandler,
	gameHandler *api.GameHandler,
) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(api.Logger())
	r.Use(api.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	r.GET("/health", gin.WrapH(checker))
	r.GET("/ready", func(c *gin.Context) {
		if checker.IsHealthy(c.Request.Context()) {
			c.String(http.StatusOK, "OK")
			return
		}
		c.String(http.StatusServiceUnavailable, "Not Ready")
	})

	v1 := r.Group("/api/v1")
	{
		scores := v1.Group("/scores")
		{
			scores.GET("", scoreHandler.Top)
			scores.GET("/high", scoreHandler.HighScore)
		}

		results := v1.Group("/results")
		{
			results.GET("", resultHandler.Top)
			results.GET("/:gameId", resultHandler.GetByGame)
		}

		v1.GET("/players/:id/results", resultHandler.ListByPlayer)
		v1.GET("/games/:id", gameHandler.GetGame)
	}

	return r
}
