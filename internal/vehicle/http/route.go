package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers vehicle brand/model reference routes. Reads are
// public; writes are restricted to admins.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, profileMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/vehicles")

	group.GET("/brands", h.ListBrands)
	group.GET("/models", h.ListModels)

	admin := group.Group("")
	admin.Use(authMiddleware, profileMiddleware, adminMiddleware)
	{
		admin.POST("/brands", h.CreateBrand)
		admin.POST("/models", h.CreateModel)
	}
}
