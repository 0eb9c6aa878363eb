package main

import (
	"log"
	"strings"

	"weighbridge-backend/internal/config"
	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/health"
	"weighbridge-backend/internal/tare"
	"weighbridge-backend/internal/weighing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.InitWeight(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Post("/weight", weighing.RecordWeightHandler())
	app.Get("/weight", weighing.ListWeightHandler())
	app.Get("/session/:id", weighing.GetSessionHandler())
	app.Get("/item/:id", weighing.GetItemHandler())
	app.Get("/unknown", weighing.UnknownContainersHandler())
	app.Post("/batch-weight", tare.BatchWeightHandler(cfg))
	app.Get("/health", health.Handler())

	log.Println("Weight service listening on port:", cfg.WeightHTTPPort)
	if err := app.Listen(":" + cfg.WeightHTTPPort); err != nil {
		log.Fatal(err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	log.Println("Unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}

func joinOrigins(origins string) string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ",")
}
