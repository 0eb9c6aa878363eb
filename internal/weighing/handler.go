package weighing

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"weighbridge-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type RecordWeightRequest struct {
	Direction  string   `json:"direction"`
	Truck      string   `json:"truck"`
	Containers string   `json:"containers"` // comma list, e.g. "C-35,K-102"
	Weight     *float64 `json:"weight"`
	Unit       string   `json:"unit"`    // kg (default) or lbs
	Produce    string   `json:"produce"` // default "na"
	Force      bool     `json:"force"`
}

type WeightResponse struct {
	ID        uint   `json:"id"`
	Truck     string `json:"truck"`
	Bruto     int    `json:"bruto"`
	TruckTara *int   `json:"truckTara,omitempty"`
	Neto      any    `json:"neto,omitempty"` // kg or "na"
}

type SessionSummary struct {
	ID         uint     `json:"id"`
	Direction  string   `json:"direction"`
	Bruto      int      `json:"bruto"`
	Neto       any      `json:"neto"` // kg or "na"
	Produce    string   `json:"produce"`
	Containers []string `json:"containers"`
}

type ItemResponse struct {
	ID       string `json:"id"`
	Tara     any    `json:"tara"` // kg or "na"
	Sessions []uint `json:"sessions"`
}

// -------------------------
// Handlers
// -------------------------

// POST /weight
func RecordWeightHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecordWeightRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		direction := models.Direction(body.Direction)
		if !direction.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "direction must be one of in, out, none")
		}
		if body.Weight == nil {
			return fiber.NewError(fiber.StatusBadRequest, "weight is required")
		}
		kg, err := ToKilograms(*body.Weight, body.Unit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if direction != models.DirectionNone && strings.TrimSpace(body.Truck) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "truck is required for in/out weighings")
		}

		produce := body.Produce
		if produce == "" {
			produce = models.NA
		}

		result, err := Record(RecordRequest{
			Direction:  direction,
			Truck:      strings.TrimSpace(body.Truck),
			Containers: SplitContainers(body.Containers),
			Weight:     kg,
			Produce:    produce,
			Force:      body.Force,
		})
		if err != nil {
			return engineError(err)
		}

		resp := WeightResponse{ID: result.ID, Truck: result.Truck, Bruto: result.Bruto}
		if direction == models.DirectionOut {
			resp.TruckTara = result.TruckTara
			resp.Neto = netoValue(result.Neto)
		}
		return c.JSON(resp)
	}
}

// GET /weight?from=YYYYMMDDHHMMSS&to=YYYYMMDDHHMMSS&filter=in,out,none
func ListWeightHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		from, to, err := parseRange(c, StartOfDay(now), now)
		if err != nil {
			return err
		}

		// an absent filter means all directions; a present-but-empty one is
		// a caller mistake, so the query default cannot be used here
		filter := "in,out,none"
		if c.Context().QueryArgs().Has("filter") {
			filter = c.Query("filter")
		}
		var dirs []models.Direction
		for _, part := range strings.Split(filter, ",") {
			d := models.Direction(strings.TrimSpace(part))
			if d == "" {
				continue
			}
			if !d.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "filter must be a comma list of in, out, none")
			}
			dirs = append(dirs, d)
		}
		if len(dirs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "filter must name at least one direction")
		}

		rows, err := ListSessions(from, to, dirs)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list weighings")
		}

		resp := make([]SessionSummary, 0, len(rows))
		for _, row := range rows {
			containers := SplitContainers(row.Containers)
			if containers == nil {
				containers = []string{}
			}
			resp = append(resp, SessionSummary{
				ID:         row.ID,
				Direction:  string(row.Direction),
				Bruto:      row.Bruto,
				Neto:       netoValue(row.Neto),
				Produce:    row.Produce,
				Containers: containers,
			})
		}
		return c.JSON(resp)
	}
}

// GET /session/:id
func GetSessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
		}

		session, err := GetSession(uint(id))
		if err != nil {
			return engineError(err)
		}

		resp := WeightResponse{ID: session.ID, Truck: session.Truck, Bruto: session.Bruto}
		if session.Direction == models.DirectionOut {
			resp.TruckTara = session.TruckTara
			resp.Neto = netoValue(session.Neto)
		}
		return c.JSON(resp)
	}
}

// GET /item/:id?from=YYYYMMDDHHMMSS&to=YYYYMMDDHHMMSS
func GetItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		from, to, err := parseRange(c, StartOfMonth(now), now)
		if err != nil {
			return err
		}
		if to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
		}

		item, err := GetItem(c.Params("id"), from, to)
		if err != nil {
			return engineError(err)
		}

		sessions := item.Sessions
		if sessions == nil {
			sessions = []uint{}
		}
		return c.JSON(ItemResponse{ID: item.ID, Tara: netoValue(item.Tara), Sessions: sessions})
	}
}

// GET /unknown
func UnknownContainersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := UnknownContainers()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list unknown containers")
		}
		if ids == nil {
			ids = []string{}
		}
		return c.JSON(ids)
	}
}

// -------------------------
// Helpers
// -------------------------

func parseRange(c *fiber.Ctx, defaultFrom, defaultTo time.Time) (time.Time, time.Time, error) {
	from, to := defaultFrom, defaultTo

	if s := c.Query("from"); s != "" {
		t, err := ParseStamp(s)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := ParseStamp(s)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		to = t
	}
	return from, to, nil
}

// netoValue serializes the nullable weight: "na" only exists at the boundary.
func netoValue(v *int) any {
	if v == nil {
		return models.NA
	}
	return *v
}

func engineError(err error) error {
	switch {
	case errors.Is(err, ErrTruckAlreadyIn):
		return fiber.NewError(fiber.StatusBadRequest, ErrTruckAlreadyIn.Error())
	case errors.Is(err, ErrOutWithoutIn):
		return fiber.NewError(fiber.StatusBadRequest, ErrOutWithoutIn.Error())
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, ErrItemNotFound.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Unexpected database error")
	}
}
