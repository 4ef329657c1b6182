package api

import (
	"Courier/internal/api/config"
	"Courier/internal/api/middleware"
	"Courier/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, cfg *config.Config) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger
	r.Use(middleware.TraceMiddleware())
	logger.SetupGin(r, cfg.Logstash.Index)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		imGroup := apiGroup.Group("/im")
		{
			imGroup.GET("", group.WSHandler.Connect)

			authGroup := imGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware(cfg.Verifier.JWTSecret))
			{
				authGroup.GET("/online", group.IMHandler.GetOnlineUsers)
			}
		}
	}

	return r
}
