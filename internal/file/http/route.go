package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/files")

	// === Public Routes ===
	group.GET("/:id", h.Download)
	group.GET("/:id/thumbnail", h.DownloadThumbnail)

	// === Admin Routes ===
	admin := group.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("", h.Upload)
		admin.DELETE("/:id", h.Delete)
	}
}
