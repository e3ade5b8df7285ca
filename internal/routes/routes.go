package routes

import (
	"net/http"

	"buzzchat_backend/internal/auth"
	"buzzchat_backend/internal/handlers"
	"buzzchat_backend/internal/middleware"
	"buzzchat_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes wires every handler onto the engine. Public auth endpoints
// are unguarded; everything under /api/v1 requires a bearer token; the
// /internal group is guarded by its own static key inside the handler.
func SetupRoutes(
	r *gin.Engine,
	db *gorm.DB,
	tokens *auth.TokenManager,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	messageHandler *handlers.MessageHandler,
	internalHandler *handlers.InternalHandler,
	wsHandler *ws.Handler,
) {
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.DBMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	authHandler.RegisterRoutes(v1)
	internalHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		chatHandler.RegisterRoutes(protected)
		messageHandler.RegisterRoutes(protected)
	}

	wsHandler.RegisterRoutes(v1.Group(""))
}
