package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentaspace/backend/internal/api"
	"github.com/rentaspace/backend/internal/auth"
	"github.com/rentaspace/backend/internal/booking"
	"github.com/rentaspace/backend/internal/file"
	"github.com/rentaspace/backend/internal/notification"
	"github.com/rentaspace/backend/internal/pkg/storage"
	"github.com/rentaspace/backend/internal/resource"
	"github.com/rentaspace/backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	SweepInterval  time.Duration
	ReminderWindow time.Duration

	UploadDir   string
	ExpoPushURL string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router  *gin.Engine
	Sweeper *booking.Sweeper

	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init local storage failed: %w", err)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// File Module
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, store)

	// Notification Module
	pushSender := notification.NewExpoPushSender(cfg.ExpoPushURL)
	notifRepo := notification.NewPgxRepository(cfg.DBPool)
	notifService := notification.NewService(notifRepo, pushSender)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, resService, notifService)
	sweeper := booking.NewSweeper(bookingRepo, notifService, cfg.SweepInterval, cfg.ReminderWindow)

	// Router
	router := api.NewRouter(api.RouterConfig{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         splitOrigins(cfg.ProdOrigins),
		UserService:         userService,
		ResourceService:     resService,
		BookingService:      bookingService,
		FileService:         fileService,
		NotificationService: notifService,
		JWTManager:          jwtManager,
	})

	return &Container{
		Router:     router,
		Sweeper:    sweeper,
		JWTManager: jwtManager,
	}, nil
}

// splitOrigins parses the comma-separated PROD_ORIGINS value.
func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
