package health

import (
	"log"

	"weighbridge-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /health
// Probes the backing store with SELECT 1.
func Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := database.Ping(); err != nil {
			log.Println("Health check failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failure")
		}
		return c.JSON(fiber.Map{"status": "OK"})
	}
}

// StatelessHandler is for services without a database of their own.
func StatelessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "OK"})
	}
}
