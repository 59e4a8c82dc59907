package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rentaspace/backend/internal/auth"
	"github.com/rentaspace/backend/internal/booking"
	bookingHttp "github.com/rentaspace/backend/internal/booking/http"
	"github.com/rentaspace/backend/internal/file"
	fileHttp "github.com/rentaspace/backend/internal/file/http"
	"github.com/rentaspace/backend/internal/notification"
	notificationHttp "github.com/rentaspace/backend/internal/notification/http"
	"github.com/rentaspace/backend/internal/resource"
	resourceHttp "github.com/rentaspace/backend/internal/resource/http"
	"github.com/rentaspace/backend/internal/user"
	userHttp "github.com/rentaspace/backend/internal/user/http"
)

// RouterConfig carries the services and settings the router needs.
type RouterConfig struct {
	IsProduction bool
	ProdOrigins  []string

	UserService         user.Service
	ResourceService     resource.Service
	BookingService      booking.Service
	FileService         file.Service
	NotificationService notification.Service
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and
// registering routes for the individual modules.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates that the request carries a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks the authenticated user's role in the database.
	adminMiddleware := RequireAdmin(cfg.UserService)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	fileHandler := fileHttp.NewHandler(cfg.FileService)
	notificationHandler := notificationHttp.NewHandler(cfg.NotificationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler, authMiddleware, adminMiddleware)
		notificationHttp.RegisterRoutes(v1, notificationHandler, authMiddleware)
	}

	return r
}
