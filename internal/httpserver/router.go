package httpserver

import (
	"github.com/gin-gonic/gin"

	"gucnotify/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(accountHandler *handler.AccountHandler, jwtSecret string) *Router {
	r := gin.Default()

	// Public
	r.POST("/register", accountHandler.Register)
	r.POST("/login", accountHandler.Login)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/me", accountHandler.Me)
		auth.PUT("/preferences", accountHandler.UpdatePreferences)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(":" + port)
}
