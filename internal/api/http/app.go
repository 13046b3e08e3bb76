package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp creates the Fiber app with the centralized error handler, global
// middleware and the health endpoint. accessLog toggles request logging.
func NewApp(accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "sunnyweather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Long enough for /events long-polling.
		WriteTimeout: 3 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	if accessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sunnyweather",
		})
	})

	return app
}
