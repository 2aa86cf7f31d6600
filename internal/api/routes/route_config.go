package routes

import (
	"time"

	"WasteGuard-Backend/internal/api/handlers"
	"WasteGuard-Backend/internal/middleware"
	"WasteGuard-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	App                 *fiber.App
	UserHandler         handlers.UserHandler
	ProductHandler      handlers.ProductHandler
	NotificationHandler handlers.NotificationHandler
	Middleware          middleware.Middleware
	JWTService          jwt.JWTService
	RedisClient         *redis.Client
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Products()
	c.Notifications()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// user routes
	{
		user.Post("/register", c.UserHandler.RegisterUser)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.GetProfile)
		user.Patch("/update", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdateUser)
	}
}

func (c *Config) Products() {
	// Mutations purge the user's cached responses, so reads after a
	// write never serve the pre-mutation list for the TTL's duration.
	invalidate := middleware.CacheInvalidationMiddleware(c.RedisClient)
	products := c.App.Group("/api/v1/products", c.Middleware.AuthMiddleware(c.JWTService), invalidate)

	// Read endpoints sit behind the HTTP response cache; the in-process
	// product cache still applies underneath it.
	responseCache := middleware.CacheMiddleware(c.RedisClient, middleware.CacheConfig{TTL: 30 * time.Second})

	products.Get("", responseCache, c.ProductHandler.GetProducts)
	products.Get("/expiring", responseCache, c.ProductHandler.GetExpiringSoonProducts)
	products.Get("/search", c.ProductHandler.SearchProducts)

	products.Post("", c.ProductHandler.CreateProduct)
	products.Put("/:id", c.ProductHandler.UpdateProduct)
	products.Delete("/bulk", c.ProductHandler.DeleteProducts)
	products.Delete("/:id", c.ProductHandler.DeleteProduct)

	products.Post("/:id/used", c.ProductHandler.MarkProductAsUsed)
	products.Post("/:id/image", c.ProductHandler.UploadProductImage)

	categories := c.App.Group("/api/v1/categories", c.Middleware.AuthMiddleware(c.JWTService), invalidate)
	categories.Get("", c.ProductHandler.GetCategories)
	categories.Post("", c.ProductHandler.AddCategory)

	stats := c.App.Group("/api/v1/stats", c.Middleware.AuthMiddleware(c.JWTService))
	stats.Get("", responseCache, c.ProductHandler.GetUserStatistics)
	stats.Get("/analytics", responseCache, c.ProductHandler.GetUserAnalytics)
	stats.Get("/usage-history", c.ProductHandler.GetUsageHistory)
}

func (c *Config) Notifications() {
	// Cleanup deletes products, so it purges cached responses as well.
	invalidate := middleware.CacheInvalidationMiddleware(c.RedisClient)
	notifications := c.App.Group("/api/v1/notifications", c.Middleware.AuthMiddleware(c.JWTService), invalidate)
	notifications.Post("/devices", c.NotificationHandler.RegisterDevice)
	notifications.Post("/app-state", c.NotificationHandler.AppStateTransition)
	notifications.Post("/check", c.NotificationHandler.CheckExpiry)
	notifications.Post("/cleanup", c.NotificationHandler.CleanupExpired)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
