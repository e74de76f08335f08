package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/harvestkit/harvestkit/internal/config"
)

// NewServer builds the fiber app with middleware and routes. The caller
// owns Listen and Shutdown.
func NewServer(cfg *config.ServerConfig, h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "HarvestKit API",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "UTC",
	}))
	if cfg != nil && cfg.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	setupRoutes(app, h)
	return app
}

func setupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")

	harvests := v1.Group("/harvests")
	harvests.Post("/", h.StartHarvest)
	harvests.Get("/", h.ListHarvests)
	harvests.Get("/:id", h.GetHarvest)

	volumes := v1.Group("/volumes")
	volumes.Get("/", h.ListVolumes)
	volumes.Get("/:name", h.GetVolume)

	v1.Get("/storage/stats", h.StorageStats)
}
