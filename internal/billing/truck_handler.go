package billing

import (
	"errors"
	"fmt"
	"strings"

	"weighbridge-backend/internal/billing/weightclient"
	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type TruckRequest struct {
	ID         string `json:"id"`
	ProviderID uint   `json:"provider_id"`
}

// -------------------------
// Truck Handlers
// -------------------------

// POST /truck
func RegisterTruckHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TruckRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		truckID := strings.TrimSpace(body.ID)
		if truckID == "" || body.ProviderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields. Both 'id' and 'provider_id' are required")
		}

		if err := providerExists(body.ProviderID); err != nil {
			return err
		}

		truck := models.Truck{ID: truckID, ProviderID: body.ProviderID}
		if err := database.DB.Create(&truck).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Truck already registered")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Truck could not be saved")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Truck registered successfully",
			"id":          truck.ID,
			"provider_id": truck.ProviderID,
		})
	}
}

// PUT /truck/:id
func UpdateTruckHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TruckRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProviderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Missing provider_id")
		}

		var truck models.Truck
		if err := database.DB.First(&truck, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Truck not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Truck could not be loaded")
		}

		if err := providerExists(body.ProviderID); err != nil {
			return err
		}

		truck.ProviderID = body.ProviderID
		if err := database.DB.Save(&truck).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Truck could not be updated")
		}

		return c.JSON(fiber.Map{"id": truck.ID, "provider_id": truck.ProviderID})
	}
}

// GET /truck/:id?from&to
// Proxies the weighing service's item lookup for this truck.
func GetTruckHandler(client *weightclient.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		truckID := c.Params("id")

		var truck models.Truck
		if err := database.DB.First(&truck, "id = ?", truckID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Truck not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Truck could not be loaded")
		}

		from := c.Query("from")
		if from != "" {
			if err := checkStamp("from", from); err != nil {
				return err
			}
		}
		to := c.Query("to")
		if to != "" {
			if err := checkStamp("to", to); err != nil {
				return err
			}
		}

		item, err := client.GetItem(truckID, from, to)
		if err != nil {
			return clientError(err)
		}
		return c.JSON(item)
	}
}

// -------------------------
// Helpers
// -------------------------

func providerExists(id uint) error {
	var provider models.Provider
	if err := database.DB.First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Provider with ID %d does not exist", id))
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Provider could not be loaded")
	}
	return nil
}

func clientError(err error) error {
	switch {
	case errors.Is(err, weightclient.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Truck has no weighings on record")
	case errors.Is(err, weightclient.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Weight service unavailable")
	default:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
}
