package server

import (
	"time"

	httpHandler "blog-social/interfaces/http"
	"blog-social/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	healthHandler httpHandler.IHealthHandler,
	socialHandler httpHandler.ISocialHandler,
	stream gin.HandlerFunc,
	secretKey string,
	corsOrigins []string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	social := router.Group("/social")
	social.Use(middleware.Auth(secretKey))
	{
		social.POST("/accounts", socialHandler.ConnectAccount)
		social.GET("/accounts", socialHandler.ListAccounts)
		social.DELETE("/accounts", socialHandler.DeleteAccount)
		social.GET("/accounts/authorize", socialHandler.AuthorizeURL)

		social.POST("/publish", socialHandler.Publish)
		social.GET("/publish", socialHandler.ListPublications)
		social.GET("/stats", socialHandler.GetStats)

		// Server-sent publication status events for the caller
		if stream != nil {
			social.GET("/stream", stream)
		}
	}

	return router
}
