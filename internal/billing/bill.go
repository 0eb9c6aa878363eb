package billing

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"weighbridge-backend/internal/billing/weightclient"
	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const stampLayout = "20060102150405"

// -------------------------
// Response Types
// -------------------------

type BillProduct struct {
	Product string `json:"product"`
	Count   int    `json:"count"`  // matched out-sessions
	Amount  int    `json:"amount"` // sum of known netos, kg
	Rate    int    `json:"rate"`   // agorot per kg
	Pay     int    `json:"pay"`    // agorot
}

type BillResponse struct {
	ID           uint          `json:"id"`
	Name         string        `json:"name"`
	From         string        `json:"from"`
	To           string        `json:"to"`
	TruckCount   int           `json:"truckCount"`
	SessionCount int           `json:"sessionCount"`
	Products     []BillProduct `json:"products"`
	Total        int           `json:"total"`
}

// MissingRateError - billed produce without a provider or ALL rate.
// Billing refuses to price such produce at zero.
type MissingRateError struct {
	Products []string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no rate on file for: %s", strings.Join(e.Products, ", "))
}

// -------------------------
// Bill Handler
// -------------------------

// GET /bill/:id?from&to
func GetBillHandler(client *weightclient.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid provider id")
		}

		var provider models.Provider
		if err := database.DB.First(&provider, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Provider not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Provider could not be loaded")
		}

		now := time.Now()
		from := c.Query("from")
		if from == "" {
			y, m, _ := now.Date()
			from = time.Date(y, m, 1, 0, 0, 0, 0, now.Location()).Format(stampLayout)
		} else if err := checkStamp("from", from); err != nil {
			return err
		}
		to := c.Query("to")
		if to == "" {
			to = now.Format(stampLayout)
		} else if err := checkStamp("to", to); err != nil {
			return err
		}

		bill, err := ComputeBill(client, &provider, from, to)
		if err != nil {
			var missing *MissingRateError
			if errors.As(err, &missing) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   missing.Error(),
					"details": missing.Products,
				})
			}
			return clientError(err)
		}
		return c.JSON(bill)
	}
}

// ComputeBill aggregates the provider's out-sessions by produce over
// [from, to]. Sessions with an unavailable neto still count but add 0 kg.
// Billing has no persisted side effects, so any upstream failure is safe to
// surface as-is.
func ComputeBill(client *weightclient.Client, provider *models.Provider, from, to string) (*BillResponse, error) {
	var trucks []models.Truck
	if err := database.DB.Where("provider_id = ?", provider.ID).Find(&trucks).Error; err != nil {
		return nil, err
	}

	bill := &BillResponse{
		ID:         provider.ID,
		Name:       provider.Name,
		From:       from,
		To:         to,
		TruckCount: len(trucks),
		Products:   []BillProduct{},
	}
	if len(trucks) == 0 {
		return bill, nil
	}

	// Session summaries carry produce and neto but not the truck, item
	// lookups carry the truck's session ids; the bill needs the join.
	owned := make(map[uint]struct{})
	for _, truck := range trucks {
		item, err := client.GetItem(truck.ID, from, to)
		if err != nil {
			if errors.Is(err, weightclient.ErrNotFound) {
				continue // registered but never weighed
			}
			return nil, err
		}
		for _, sid := range item.Sessions {
			owned[sid] = struct{}{}
		}
	}

	sessions, err := client.ListSessions(from, to, "out")
	if err != nil {
		return nil, err
	}

	type group struct {
		count  int
		amount int
	}
	groups := make(map[string]*group)
	for _, session := range sessions {
		if _, ok := owned[session.ID]; !ok {
			continue
		}
		if session.Produce == models.NA {
			continue
		}
		g := groups[session.Produce]
		if g == nil {
			g = &group{}
			groups[session.Produce] = g
		}
		g.count++
		if neto, ok := session.NetoKg(); ok {
			g.amount += neto
		}
	}

	rates, err := loadRates(provider.ID)
	if err != nil {
		return nil, err
	}

	products := make([]string, 0, len(groups))
	for product := range groups {
		products = append(products, product)
	}
	sort.Strings(products)

	var missing []string
	for _, product := range products {
		if _, ok := rates[product]; !ok {
			missing = append(missing, product)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingRateError{Products: missing}
	}

	for _, product := range products {
		g := groups[product]
		rate := rates[product]
		pay := g.amount * rate
		bill.Products = append(bill.Products, BillProduct{
			Product: product,
			Count:   g.count,
			Amount:  g.amount,
			Rate:    rate,
			Pay:     pay,
		})
		bill.SessionCount += g.count
		bill.Total += pay
	}
	return bill, nil
}

// checkStamp rejects malformed range bounds here instead of bouncing them off
// the weighing service as a gateway error.
func checkStamp(key, value string) error {
	if _, err := time.ParseInLocation(stampLayout, value, time.Local); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid %s, expected a YYYYMMDDHHMMSS stamp", key))
	}
	return nil
}

// loadRates resolves the effective rate per product: a provider-specific
// scope beats the ALL fallback.
func loadRates(providerID uint) (map[string]int, error) {
	var rows []models.Rate
	if err := database.DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	scope := strconv.FormatUint(uint64(providerID), 10)
	rates := make(map[string]int)
	for _, row := range rows {
		if row.Scope == models.RateScopeAll {
			if _, ok := rates[row.Product]; !ok {
				rates[row.Product] = row.Rate
			}
		}
	}
	for _, row := range rows {
		if row.Scope == scope {
			rates[row.Product] = row.Rate
		}
	}
	return rates, nil
}
