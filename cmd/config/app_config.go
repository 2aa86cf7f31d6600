package config

import (
	"context"
	"os"
	"strings"
	"time"

	"WasteGuard-Backend/internal/api/handlers"
	"WasteGuard-Backend/internal/api/routes"
	"WasteGuard-Backend/internal/middleware"
	"WasteGuard-Backend/internal/utils"
	"WasteGuard-Backend/internal/utils/storage"
	"WasteGuard-Backend/pkg/events"
	"WasteGuard-Backend/pkg/jwt"
	applogger "WasteGuard-Backend/pkg/logger"
	"WasteGuard-Backend/pkg/notification"
	"WasteGuard-Backend/pkg/product"
	"WasteGuard-Backend/pkg/productcache"
	"WasteGuard-Backend/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func NewApp(ctx context.Context, db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	var redisClient *redis.Client
	if addr := utils.GetConfig("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: utils.GetConfig("REDIS_PASSWORD"),
		})
	}

	publisher := events.NewNopPublisher()
	var brokers []string
	if raw := utils.GetConfig("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
		p, err := events.NewPublisher(brokers)
		if err != nil {
			applogger.Logger.Error().Err(err).Msg("kafka publisher unavailable, change events disabled")
		} else {
			publisher = p
		}
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	productRepository := product.NewProductRepository(db)
	notificationRepository := notification.NewNotificationRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService)
	productService := product.NewProductService(productRepository, s3, publisher)

	productCache := productcache.New(productService, productcache.DefaultConfig())
	productCache.Start(ctx)

	// The change feed invalidates the in-process cache when another
	// instance mutates a user's products.
	if len(brokers) > 0 {
		consumer, err := events.NewConsumer(brokers, "wasteguard-cache", func(ctx context.Context, event events.ProductChangeEvent) {
			productCache.InvalidateUser(event.UserID)
		})
		if err != nil {
			applogger.Logger.Error().Err(err).Msg("kafka consumer unavailable, cache invalidation disabled")
		} else if err := consumer.Start(ctx); err != nil {
			applogger.Logger.Error().Err(err).Msg("kafka consumer failed to start")
		}
	}

	pushSender := notification.NewExpoPushSender(utils.GetConfig("EXPO_PUSH_URL"))
	mailer := notification.NewSMTPMailer()
	// The coordinator reads and deletes through the cache, so a cleanup
	// is visible immediately instead of after the staleness window.
	coordinator := notification.NewExpiryCoordinator(notificationRepository, productCache, pushSender, mailer)
	coordinator.Start(ctx)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	productHandler := handlers.NewProductHandler(productCache, validator)
	notificationHandler := handlers.NewNotificationHandler(coordinator, validator)

	// routes
	routesConfig := routes.Config{
		App:                 app,
		UserHandler:         userHandler,
		ProductHandler:      productHandler,
		NotificationHandler: notificationHandler,
		Middleware:          middlewares,
		JWTService:          jwtService,
		RedisClient:         redisClient,
	}
	routesConfig.Setup()
	return app, nil
}
