package billing

import (
	"errors"
	"strconv"
	"strings"

	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type ProviderRequest struct {
	Name string `json:"name"`
}

type ProviderResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// -------------------------
// Provider Handlers
// -------------------------

// POST /provider
func CreateProviderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProviderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing provider name")
		}

		provider := models.Provider{Name: name}
		if err := database.DB.Create(&provider).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Provider name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Provider could not be saved")
		}

		return c.Status(fiber.StatusCreated).JSON(ProviderResponse{ID: provider.ID, Name: provider.Name})
	}
}

// PUT /provider/:id
func UpdateProviderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid provider id")
		}

		var body ProviderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing provider name")
		}

		var provider models.Provider
		if err := database.DB.First(&provider, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Provider not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Provider could not be loaded")
		}

		provider.Name = name
		if err := database.DB.Save(&provider).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Provider name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Provider could not be updated")
		}

		return c.JSON(fiber.Map{
			"message": "Provider updated successfully",
			"id":      provider.ID,
			"name":    provider.Name,
		})
	}
}
