package main

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/abhirang/internal/config"
	"github.com/example/abhirang/internal/database"
	"github.com/example/abhirang/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap.NewProduction error: %v", err)
	}
	defer logger.Sync()

	app := fiber.New(fiber.Config{
		AppName: "Abhirang Backend",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			} else {
				logger.Error("unhandled request error",
					zap.String("path", c.Path()),
					zap.Error(err))
			}

			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": message,
			})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, db, cfg, logger)

	logger.Info("starting server", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
