package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers store routes. Browsing is public; management
// requires authentication and ownership (checked in the service).
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, profileMiddleware gin.HandlerFunc) {
	group := g.Group("/stores")

	group.GET("", h.List)
	group.GET("/:id", h.Get)

	managed := group.Group("")
	managed.Use(authMiddleware, profileMiddleware)
	{
		managed.POST("", h.Create)
		managed.PATCH("/:id", h.Update)
		managed.DELETE("/:id", h.Deactivate)
	}
}
