package main

import (
	"log"
	"strings"

	"weighbridge-backend/internal/billing"
	"weighbridge-backend/internal/billing/weightclient"
	"weighbridge-backend/internal/config"
	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/health"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.InitBilling(cfg)

	client := weightclient.New(cfg.WeightServiceURL)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,OPTIONS",
	}))

	app.Post("/provider", billing.CreateProviderHandler())
	app.Put("/provider/:id", billing.UpdateProviderHandler())
	app.Post("/truck", billing.RegisterTruckHandler())
	app.Put("/truck/:id", billing.UpdateTruckHandler())
	app.Get("/truck/:id", billing.GetTruckHandler(client))
	app.Post("/rates", billing.UploadRatesHandler())
	app.Get("/rates", billing.DownloadRatesHandler())
	app.Get("/bill/:id", billing.GetBillHandler(client))
	app.Get("/health", health.Handler())

	log.Println("Billing service listening on port:", cfg.BillingHTTPPort)
	if err := app.Listen(":" + cfg.BillingHTTPPort); err != nil {
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
