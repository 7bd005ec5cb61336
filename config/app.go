package config

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"fiber/responta/apperror"
)

// Multipart bodies carry up to three photos.
const bodyLimit = 16 * 1024 * 1024

func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      Env.AppName,
		ErrorHandler: apperror.Handler,
		BodyLimit:    bodyLimit,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New())

	return app
}
