package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// POST /rates
// Uploads the rate sheet (columns Product, Rate, Scope) and atomically
// replaces the current rate table. Scope is a provider id or "ALL".
func UploadRatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Rate file upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx rate files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rate file could not be opened: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Rate file could not be read: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Rate file has no sheets")
		}
		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Rate sheet could not be read: "+err.Error())
		}

		rates, err := parseRateRows(rows)
		if err != nil {
			return err // already a *fiber.Error
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("1 = 1").Delete(&models.Rate{}).Error; err != nil {
				return err
			}
			if len(rates) == 0 {
				return nil
			}
			return tx.Create(&rates).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rates could not be saved")
		}

		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Successfully processed %d rates", len(rates)),
		})
	}
}

// parseRateRows validates the whole sheet before anything is written; an
// unknown provider in Scope aborts the upload.
func parseRateRows(rows [][]string) ([]models.Rate, error) {
	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), "Product") {
		start = 1 // header row
	}

	var rates []models.Rate
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 3 {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Row %d must have Product, Rate and Scope", i+1))
		}

		product := strings.TrimSpace(row[0])
		rate, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || rate < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid rate %q for product %s", row[1], product))
		}

		scope := strings.TrimSpace(row[2])
		if !strings.EqualFold(scope, models.RateScopeAll) {
			providerID, err := strconv.ParseUint(scope, 10, 64)
			if err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid scope %q for product %s", scope, product))
			}
			var provider models.Provider
			if err := database.DB.First(&provider, uint(providerID)).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Provider with ID %s does not exist", scope))
				}
				return nil, fiber.NewError(fiber.StatusInternalServerError, "Provider could not be loaded")
			}
		} else {
			scope = models.RateScopeAll
		}

		rates = append(rates, models.Rate{Product: product, Rate: rate, Scope: scope})
	}
	return rates, nil
}

// GET /rates
// Regenerates the rate sheet from the current table.
func DownloadRatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rates []models.Rate
		if err := database.DB.Order("scope, product").Find(&rates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rates could not be loaded")
		}

		excelFile := excelize.NewFile()
		defer excelFile.Close()

		sheet := excelFile.GetSheetName(0)
		headers := []string{"Product", "Rate", "Scope"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			excelFile.SetCellValue(sheet, cell, h)
		}
		for i, rate := range rates {
			rowNum := i + 2
			excelFile.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), rate.Product)
			excelFile.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), rate.Rate)
			excelFile.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), rate.Scope)
		}

		buf, err := excelFile.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rate file could not be generated")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="rates.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
