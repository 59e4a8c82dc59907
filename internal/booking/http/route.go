package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.POST("/check-availability", h.CheckAvailability)
		group.GET("/:id", h.Get)
		group.POST("/:id/cancel", h.Cancel)
	}

	// === Admin Routes ===
	admin := group.Group("")
	admin.Use(adminMiddleware)
	{
		admin.PUT("/:id/status", h.SetStatus)
	}
}
