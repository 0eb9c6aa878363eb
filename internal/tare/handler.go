package tare

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"weighbridge-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// POST /batch-weight
// The request names a CSV/JSON file that was already dropped into the upload
// folder; the file itself is not part of the request body.
func BatchWeightHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.FormValue("file")
		if filename == "" {
			return fiber.NewError(fiber.StatusBadRequest, "No file specified")
		}

		// Base strips any path components a client may sneak in
		path := filepath.Join(cfg.UploadDir, filepath.Base(filename))
		if _, err := os.Stat(path); err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("File %s not found in upload folder", filename))
		}

		records, err := ParseFile(path)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFormat) {
				return fiber.NewError(fiber.StatusBadRequest, "Unsupported file format, expected .csv or .json")
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		count, err := UpsertBatch(records)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Batch could not be saved")
		}

		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Successfully processed %d records", count),
		})
	}
}
