package weighing

import (
	"errors"
	"sort"
	"strings"
	"time"

	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTruckAlreadyIn  = errors.New("truck already weighed in")
	ErrOutWithoutIn    = errors.New("out without in is not allowed")
	ErrSessionNotFound = errors.New("session not found")
	ErrItemNotFound    = errors.New("item not found")
)

type RecordRequest struct {
	Direction  models.Direction
	Truck      string
	Containers []string
	Weight     int // kg, already normalized
	Produce    string
	Force      bool
}

type RecordResult struct {
	ID        uint
	Truck     string
	Bruto     int
	TruckTara *int // set on "out" only
	Neto      *int // set on "out" only, nil when a container tare is unknown
}

// Record persists one weighing event. The open-session lookup and the
// session/index writes run in a single transaction; the OpenWeighing primary
// key turns a lost race between two "in" requests into a duplicate-key error,
// and the out/force paths claim or consume that row by affected-row count so
// a pairing can only be closed once.
func Record(req RecordRequest) (*RecordResult, error) {
	var result *RecordResult

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		switch req.Direction {
		case models.DirectionNone:
			result, err = recordNone(tx, req)
		case models.DirectionIn:
			result, err = recordIn(tx, req)
		case models.DirectionOut:
			result, err = recordOut(tx, req)
		default:
			err = errors.New("invalid direction")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recordNone(tx *gorm.DB, req RecordRequest) (*RecordResult, error) {
	session := models.WeighingSession{
		Datetime:   time.Now(),
		Direction:  models.DirectionNone,
		Truck:      models.NA,
		Containers: JoinContainers(req.Containers),
		Bruto:      req.Weight,
		Produce:    req.Produce,
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, err
	}
	return &RecordResult{ID: session.ID, Truck: session.Truck, Bruto: session.Bruto}, nil
}

func recordIn(tx *gorm.DB, req RecordRequest) (*RecordResult, error) {
	var open models.OpenWeighing
	err := tx.First(&open, "truck_id = ?", req.Truck).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return openIn(tx, req)

	case err != nil:
		return nil, err

	case !req.Force:
		return nil, ErrTruckAlreadyIn

	default:
		// force=true: claim the index row before touching the session, so a
		// concurrent out for the same truck blocks on its row lock
		claimed, err := claimOpen(tx, req.Truck, open.SessionID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// the pairing was consumed after the lookup; this is a fresh in
			return openIn(tx, req)
		}

		// overwrite the open "in" row in place, same id
		updates := map[string]any{
			"datetime":   time.Now(),
			"containers": JoinContainers(req.Containers),
			"bruto":      req.Weight,
			"produce":    req.Produce,
		}
		if err := tx.Model(&models.WeighingSession{}).Where("id = ?", open.SessionID).Updates(updates).Error; err != nil {
			return nil, err
		}
		return &RecordResult{ID: open.SessionID, Truck: req.Truck, Bruto: req.Weight}, nil
	}
}

// openIn creates a new "in" session and its open-pairing index row.
func openIn(tx *gorm.DB, req RecordRequest) (*RecordResult, error) {
	session := models.WeighingSession{
		Datetime:   time.Now(),
		Direction:  models.DirectionIn,
		Truck:      req.Truck,
		Containers: JoinContainers(req.Containers),
		Bruto:      req.Weight,
		Produce:    req.Produce,
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, err
	}
	index := models.OpenWeighing{TruckID: req.Truck, SessionID: session.ID}
	if err := tx.Create(&index).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTruckAlreadyIn
		}
		return nil, err
	}
	return &RecordResult{ID: session.ID, Truck: session.Truck, Bruto: session.Bruto}, nil
}

// claimOpen takes the row lock on the truck's open-pairing index row. False
// means the pairing was consumed by a concurrent out after it was read.
func claimOpen(tx *gorm.DB, truck string, sessionID uint) (bool, error) {
	res := tx.Model(&models.OpenWeighing{}).
		Where("truck_id = ? AND session_id = ?", truck, sessionID).
		Update("created_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// consumeOpen deletes the truck's open-pairing index row. The session id in
// the key guards against a pairing that was closed and reopened since the
// lookup; zero affected rows means another transaction got there first.
func consumeOpen(tx *gorm.DB, truck string, sessionID uint) error {
	res := tx.Where("truck_id = ? AND session_id = ?", truck, sessionID).Delete(&models.OpenWeighing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOutWithoutIn
	}
	return nil
}

func recordOut(tx *gorm.DB, req RecordRequest) (*RecordResult, error) {
	var open models.OpenWeighing
	if err := tx.First(&open, "truck_id = ?", req.Truck).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOutWithoutIn
		}
		return nil, err
	}

	// consume the pairing before reading the entry: the delete's row lock
	// serializes concurrent outs and force-ins for this truck, and the entry
	// read below then sees whatever a winning force-in committed
	if err := consumeOpen(tx, req.Truck, open.SessionID); err != nil {
		return nil, err
	}

	var entry models.WeighingSession
	if err := tx.First(&entry, open.SessionID).Error; err != nil {
		return nil, err
	}

	tara := req.Weight
	var neto *int
	taraSum, allKnown, err := sumContainerTares(tx, req.Containers)
	if err != nil {
		return nil, err
	}
	if allKnown {
		n := entry.Bruto - tara - taraSum
		neto = &n
	}

	produce := req.Produce
	if produce == "" || produce == models.NA {
		produce = entry.Produce
	}

	// bruto stays the gross weight measured at entry; what the scale reads
	// now is the truck's own tara
	session := models.WeighingSession{
		Datetime:   time.Now(),
		Direction:  models.DirectionOut,
		Truck:      req.Truck,
		Containers: JoinContainers(req.Containers),
		Bruto:      entry.Bruto,
		TruckTara:  &tara,
		Neto:       neto,
		Produce:    produce,
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, err
	}

	return &RecordResult{
		ID:        session.ID,
		Truck:     session.Truck,
		Bruto:     session.Bruto,
		TruckTara: session.TruckTara,
		Neto:      session.Neto,
	}, nil
}

// sumContainerTares resolves every container against the tare registry.
// A missing row or a recorded weight of 0 means the tare is unknown, in
// which case neto must not be computed at all.
func sumContainerTares(tx *gorm.DB, containers []string) (sum int, allKnown bool, err error) {
	allKnown = true
	for _, id := range containers {
		var tare models.ContainerTare
		if err := tx.First(&tare, "container_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				allKnown = false
				continue
			}
			return 0, false, err
		}
		if tare.Weight == 0 {
			allKnown = false
			continue
		}
		sum += tare.Weight
	}
	return sum, allKnown, nil
}

// GetSession returns a single weighing event by id.
func GetSession(id uint) (*models.WeighingSession, error) {
	var session models.WeighingSession
	if err := database.DB.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListSessions returns events with datetime in [from, to] (inclusive) and a
// direction in dirs, ordered by time.
func ListSessions(from, to time.Time, dirs []models.Direction) ([]models.WeighingSession, error) {
	var rows []models.WeighingSession
	err := database.DB.
		Where("datetime >= ? AND datetime <= ?", from, to).
		Where("direction IN ?", dirs).
		Order("datetime, id").
		Find(&rows).Error
	return rows, err
}

type ItemResult struct {
	ID       string
	Tara     *int // nil when unknown
	Sessions []uint
}

// GetItem resolves id as a truck first, then as a registered container.
// Trucks and containers live in disjoint identifier spaces.
func GetItem(id string, from, to time.Time) (*ItemResult, error) {
	var truckSessions int64
	if err := database.DB.Model(&models.WeighingSession{}).
		Where("truck = ? AND direction <> ?", id, models.DirectionNone).
		Count(&truckSessions).Error; err != nil {
		return nil, err
	}
	if truckSessions > 0 {
		return truckItem(id, from, to)
	}

	var tare models.ContainerTare
	err := database.DB.First(&tare, "container_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return containerItem(&tare, from, to)
}

func truckItem(truck string, from, to time.Time) (*ItemResult, error) {
	var rows []models.WeighingSession
	err := database.DB.
		Where("truck = ? AND datetime >= ? AND datetime <= ?", truck, from, to).
		Order("datetime, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := &ItemResult{ID: truck}
	for _, row := range rows {
		result.Sessions = append(result.Sessions, row.ID)
		if row.Direction == models.DirectionOut && row.TruckTara != nil {
			// rows are time-ordered, so the last hit wins
			tara := *row.TruckTara
			result.Tara = &tara
		}
	}
	return result, nil
}

func containerItem(tare *models.ContainerTare, from, to time.Time) (*ItemResult, error) {
	var rows []models.WeighingSession
	err := database.DB.
		Where("datetime >= ? AND datetime <= ?", from, to).
		Order("datetime, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := &ItemResult{ID: tare.ContainerID}
	if tare.Weight > 0 {
		w := tare.Weight
		result.Tara = &w
	}
	for _, row := range rows {
		for _, c := range SplitContainers(row.Containers) {
			if c == tare.ContainerID {
				result.Sessions = append(result.Sessions, row.ID)
				break
			}
		}
	}
	return result, nil
}

// UnknownContainers lists container ids with no usable tare: registered with
// weight 0, or seen on a session without ever being registered.
func UnknownContainers() ([]string, error) {
	unknown := make(map[string]struct{})

	var zeroed []string
	if err := database.DB.Model(&models.ContainerTare{}).
		Where("weight = 0").
		Pluck("container_id", &zeroed).Error; err != nil {
		return nil, err
	}
	for _, id := range zeroed {
		unknown[id] = struct{}{}
	}

	var known []string
	if err := database.DB.Model(&models.ContainerTare{}).
		Where("weight > 0").
		Pluck("container_id", &known).Error; err != nil {
		return nil, err
	}
	registered := make(map[string]struct{}, len(known))
	for _, id := range known {
		registered[id] = struct{}{}
	}

	var lists []string
	if err := database.DB.Model(&models.WeighingSession{}).
		Where("containers <> ''").
		Pluck("containers", &lists).Error; err != nil {
		return nil, err
	}
	for _, list := range lists {
		for _, id := range SplitContainers(list) {
			if _, ok := registered[id]; !ok {
				unknown[id] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(unknown))
	for id := range unknown {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SplitContainers turns the stored comma-joined column into a clean id list.
func SplitContainers(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func JoinContainers(ids []string) string {
	return strings.Join(ids, ",")
}
