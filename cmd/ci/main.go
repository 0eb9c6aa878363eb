package main

import (
	"log"

	"weighbridge-backend/internal/ci"
	"weighbridge-backend/internal/config"
	"weighbridge-backend/internal/health"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
		},
	})

	app.Post("/webhook", ci.WebhookHandler(cfg, ci.NewSMTPMailer(cfg)))
	app.Get("/health", health.StatelessHandler())

	log.Println("CI dispatcher listening on port:", cfg.CIHTTPPort)
	if err := app.Listen(":" + cfg.CIHTTPPort); err != nil {
		log.Fatal(err)
	}
}
