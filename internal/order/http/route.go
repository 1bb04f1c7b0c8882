package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers order routes. Everything requires authentication;
// access scoping (buyer, store owner, admin) happens in the service.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, profileMiddleware gin.HandlerFunc) {
	group := g.Group("/orders")
	group.Use(authMiddleware, profileMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PATCH("/:id/status", h.UpdateStatus)
	}
}
