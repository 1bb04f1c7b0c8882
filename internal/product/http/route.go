package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers product catalog and image routes. Browsing is
// public with an optional identity that widens status visibility for admins;
// management requires an authenticated store owner or admin.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, optionalAuth, authMiddleware, profileMiddleware gin.HandlerFunc) {
	group := g.Group("/products")

	browse := group.Group("")
	browse.Use(optionalAuth, profileMiddleware)
	{
		browse.GET("", h.List)
		browse.GET("/:id", h.Get)
	}

	managed := group.Group("")
	managed.Use(authMiddleware, profileMiddleware)
	{
		managed.POST("", h.Create)
		managed.PATCH("/:id", h.Update)
		managed.PATCH("/:id/status", h.SetStatus)
		managed.DELETE("/:id", h.Delete)
		managed.POST("/:id/images", h.UploadImage)
		managed.PATCH("/:id/images/:imageID/primary", h.SetPrimaryImage)
	}

	images := g.Group("/product-images")
	{
		images.GET("/:id", h.DownloadImage)
		images.GET("/:id/thumbnail", h.DownloadThumbnail)
		images.DELETE("/:id", authMiddleware, profileMiddleware, h.DeleteImage)
	}
}
