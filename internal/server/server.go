package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/bluefin/internal/config"
	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/handler"
	"github.com/mansoorceksport/bluefin/internal/middleware"
	"github.com/mansoorceksport/bluefin/internal/repository"
	"github.com/mansoorceksport/bluefin/internal/service"
	"github.com/mansoorceksport/bluefin/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// verifyReplayTTL is how long a payment verification response can be replayed
const verifyReplayTTL = 24 * time.Hour

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	AuthClient  service.FirebaseAuthClient

	// FileRepo defaults to S3 when an endpoint is configured, local disk otherwise
	FileRepo domain.FileRepository
	Metrics  *telemetry.Metrics
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) (*fiber.App, error) {
	cfg := deps.Config

	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	fileRepo := deps.FileRepo
	if fileRepo == nil {
		var err error
		fileRepo, err = newFileRepository(cfg)
		if err != nil {
			return nil, err
		}
	}

	// Repositories
	cache := repository.NewRedisCacheRepository(deps.RedisClient)
	userRepo := repository.NewMongoUserRepository(deps.MongoDB)
	refreshTokenRepo := repository.NewMongoRefreshTokenRepository(deps.MongoDB)
	planRepo := repository.NewCachedPlanRepository(repository.NewMongoPlanRepository(deps.MongoDB), cache, cfg.Cache.PlanTTL)
	paymentRepo := repository.NewMongoPaymentRepository(deps.MongoDB)
	ticketRepo := repository.NewMongoTicketRepository(deps.MongoDB)
	notificationRepo := repository.NewMongoNotificationRepository(deps.MongoDB)
	usageRepo := repository.NewMongoUsageRepository(deps.MongoDB)
	contactRepo := repository.NewCachedContactRepository(repository.NewMongoContactRepository(deps.MongoDB), cache, cfg.Cache.ContactTTL)
	transactor := repository.NewMongoTransactor(deps.MongoDB.Client())
	locker := repository.NewRedisLocker(deps.RedisClient)

	// Services
	authService := service.NewAuthService(userRepo, deps.AuthClient)
	tokenService := service.NewTokenService(cfg.JWT, refreshTokenRepo, userRepo)
	userService := service.NewUserService(userRepo, paymentRepo, planRepo)
	planService := service.NewPlanService(planRepo)
	paymentService := service.NewPaymentService(
		paymentRepo,
		planRepo,
		userRepo,
		notificationRepo,
		fileRepo,
		transactor,
		locker,
		metrics,
		service.PaymentServiceConfig{
			MaxUploadBytes: cfg.MaxUploadBytes(),
			LockTTL:        cfg.Lock.PaymentTTL,
			LockWait:       cfg.Lock.PaymentWait,
		},
	)
	ticketService := service.NewTicketService(ticketRepo, userRepo, notificationRepo, metrics)
	notificationService := service.NewNotificationService(notificationRepo)
	usageService := service.NewUsageService(usageRepo, userRepo)
	contactService := service.NewContactService(contactRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, tokenService, userService, cfg.JWT.RefreshTokenExpiry, cfg.Server.CookieSecure)
	planHandler := handler.NewPlanHandler(planService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	supportHandler := handler.NewSupportHandler(ticketService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	usageHandler := handler.NewUsageHandler(usageService)
	contactHandler := handler.NewContactHandler(contactService)
	userHandler := handler.NewUserHandler(userService)

	app := fiber.New(fiber.Config{
		AppName: "BlueFin ISP Portal API",
		// Room for the multipart envelope around a max-size screenshot
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: false,
	}))
	app.Use(telemetry.FiberMiddleware(
		telemetry.WithSkipPaths("/health", "/metrics"),
		telemetry.WithIdentity(func(c *fiber.Ctx) (string, string) {
			return middleware.GetUserID(c), middleware.GetRole(c)
		}),
	))
	app.Use(metrics.HTTPMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "bluefin-portal-api",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	if _, ok := fileRepo.(*repository.LocalFileRepository); ok {
		app.Static(repository.UploadsURLPrefix, cfg.Server.UploadDir)
	}

	authenticate := middleware.Authenticate(cfg.JWT.Secret)
	requireAdmin := middleware.RequireAdmin()

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", authenticate, authHandler.Me)

	// Plans (public)
	api.Get("/plans", planHandler.ListActive)
	api.Get("/plans/:id", planHandler.Get)

	// Payments
	payments := api.Group("/payments", authenticate)
	payments.Post("/submit", paymentHandler.Submit)
	payments.Get("/history", paymentHandler.History)
	payments.Get("/:id", paymentHandler.Get)

	// Support
	support := api.Group("/support", authenticate)

	supportAdmin := support.Group("/admin", requireAdmin)
	supportAdmin.Get("/tickets", supportHandler.AdminList)
	supportAdmin.Get("/stats", supportHandler.Stats)
	supportAdmin.Post("/tickets/:id/reply", supportHandler.AdminReply)
	supportAdmin.Put("/tickets/:id/status", supportHandler.SetStatus)
	supportAdmin.Put("/tickets/:id/priority", supportHandler.SetPriority)
	supportAdmin.Put("/tickets/:id", supportHandler.Update)

	support.Post("/tickets", supportHandler.Create)
	support.Get("/tickets", supportHandler.ListMine)
	support.Get("/tickets/:id", supportHandler.Get)
	support.Post("/tickets/:id/reply", supportHandler.UserReply)

	// Notifications
	notifications := api.Group("/notifications", authenticate)
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	// Usage
	usage := api.Group("/usage", authenticate)
	usage.Get("/history", usageHandler.History)
	usage.Post("/speed-test", usageHandler.SpeedTest)
	usage.Get("/stats", usageHandler.Stats)

	// Contact
	api.Get("/contact", contactHandler.Get)
	api.Put("/contact", authenticate, requireAdmin, contactHandler.Update)

	// Admin
	admin := api.Group("/admin", authenticate, requireAdmin)
	admin.Get("/plans", planHandler.ListAll)
	admin.Post("/plans", planHandler.Create)
	admin.Put("/plans/:id", planHandler.Update)
	admin.Delete("/plans/:id", planHandler.Delete)

	admin.Get("/payments", paymentHandler.List)
	admin.Put("/payments/:id/verify", middleware.Idempotency(deps.RedisClient, verifyReplayTTL), paymentHandler.Verify)

	admin.Get("/users", userHandler.List)
	admin.Get("/users/:id", userHandler.Detail)
	admin.Post("/users/:id/usage", usageHandler.RecordForUser)

	return app, nil
}

func newFileRepository(cfg *config.Config) (domain.FileRepository, error) {
	if cfg.S3.Endpoint == "" {
		log.Info().Str("dir", cfg.Server.UploadDir).Msg("[Storage] using local disk for screenshots")
		return repository.NewLocalFileRepository(cfg.Server.UploadDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s3Repo, err := repository.NewSeaweedS3Repository(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 repository: %w", err)
	}
	log.Info().Str("endpoint", cfg.S3.Endpoint).Str("bucket", cfg.S3.Bucket).Msg("[Storage] using S3 for screenshots")
	return s3Repo, nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("[HTTP] unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{"message": msg})
}
