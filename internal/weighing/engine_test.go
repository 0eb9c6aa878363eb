package weighing

import (
	"errors"
	"testing"
	"time"

	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.WeighingSession{}, &models.OpenWeighing{}, &models.ContainerTare{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	database.DB = db
}

func registerTare(t *testing.T, id string, kg int) {
	t.Helper()
	if err := database.DB.Create(&models.ContainerTare{ContainerID: id, Weight: kg, Unit: "kg"}).Error; err != nil {
		t.Fatalf("register tare %s: %v", id, err)
	}
}

func mustRecord(t *testing.T, req RecordRequest) *RecordResult {
	t.Helper()
	result, err := Record(req)
	if err != nil {
		t.Fatalf("Record(%+v): %v", req, err)
	}
	return result
}

func TestRecordInThenOut(t *testing.T) {
	setupTestDB(t)

	in := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-1001", Weight: 1000, Produce: "orange"})
	if in.Bruto != 1000 || in.Truck != "T-1001" {
		t.Fatalf("in result = %+v", in)
	}

	out := mustRecord(t, RecordRequest{Direction: models.DirectionOut, Truck: "T-1001", Weight: 700})
	if out.Bruto != 1000 {
		t.Errorf("out bruto = %d, want 1000 (copied from the in row)", out.Bruto)
	}
	if out.TruckTara == nil || *out.TruckTara != 700 {
		t.Errorf("out truckTara = %v, want 700", out.TruckTara)
	}
	if out.Neto == nil || *out.Neto != 300 {
		t.Errorf("out neto = %v, want 300", out.Neto)
	}

	// the out row inherits the entry's produce
	session, err := GetSession(out.ID)
	if err != nil {
		t.Fatalf("GetSession(%d): %v", out.ID, err)
	}
	if session.Produce != "orange" {
		t.Errorf("out produce = %q, want orange", session.Produce)
	}

	// the pairing is consumed: a second out must fail
	if _, err := Record(RecordRequest{Direction: models.DirectionOut, Truck: "T-1001", Weight: 690}); !errors.Is(err, ErrOutWithoutIn) {
		t.Errorf("second out error = %v, want ErrOutWithoutIn", err)
	}
}

func TestRecordNetoWithContainers(t *testing.T) {
	setupTestDB(t)
	registerTare(t, "C-1", 100)
	registerTare(t, "C-2", 50)

	mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-2", Containers: []string{"C-1", "C-2"}, Weight: 1500, Produce: "apple"})
	out := mustRecord(t, RecordRequest{Direction: models.DirectionOut, Truck: "T-2", Containers: []string{"C-1", "C-2"}, Weight: 900})

	if out.Neto == nil || *out.Neto != 1500-900-150 {
		t.Errorf("neto = %v, want %d", out.Neto, 1500-900-150)
	}
}

func TestRecordNetoUnknownTare(t *testing.T) {
	setupTestDB(t)
	registerTare(t, "C-1", 100)
	registerTare(t, "C-zero", 0) // registered but weight unknown

	tests := []struct {
		name       string
		containers []string
	}{
		{"unregistered container", []string{"C-1", "C-never-seen"}},
		{"zero-weight tare", []string{"C-1", "C-zero"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			truck := "T-" + tt.name
			mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: truck, Containers: tt.containers, Weight: 1000, Produce: "apple"})
			out := mustRecord(t, RecordRequest{Direction: models.DirectionOut, Truck: truck, Containers: tt.containers, Weight: 600})
			if out.Neto != nil {
				t.Errorf("neto = %d, want unavailable: unknown tares must never count as 0", *out.Neto)
			}
		})
	}
}

func TestRecordInConflict(t *testing.T) {
	setupTestDB(t)

	first := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-3", Weight: 1200, Produce: "grape"})

	if _, err := Record(RecordRequest{Direction: models.DirectionIn, Truck: "T-3", Weight: 999}); !errors.Is(err, ErrTruckAlreadyIn) {
		t.Fatalf("second in error = %v, want ErrTruckAlreadyIn", err)
	}

	// the open session is untouched
	session, err := GetSession(first.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Bruto != 1200 {
		t.Errorf("bruto after failed in = %d, want 1200", session.Bruto)
	}
}

func TestRecordInForceOverwrites(t *testing.T) {
	setupTestDB(t)

	first := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-4", Containers: []string{"C-a"}, Weight: 1000, Produce: "grape"})
	forced := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-4", Containers: []string{"C-b"}, Weight: 1100, Produce: "melon", Force: true})

	if forced.ID != first.ID {
		t.Fatalf("forced in id = %d, want same id %d", forced.ID, first.ID)
	}
	session, err := GetSession(first.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Bruto != 1100 || session.Containers != "C-b" || session.Produce != "melon" {
		t.Errorf("forced session = {bruto:%d containers:%q produce:%q}, want overwritten values", session.Bruto, session.Containers, session.Produce)
	}

	var count int64
	database.DB.Model(&models.WeighingSession{}).Where("truck = ?", "T-4").Count(&count)
	if count != 1 {
		t.Errorf("session rows for T-4 = %d, want 1 (no duplicate)", count)
	}
}

func TestRecordOutWithoutIn(t *testing.T) {
	setupTestDB(t)

	if _, err := Record(RecordRequest{Direction: models.DirectionOut, Truck: "T-5", Weight: 700}); !errors.Is(err, ErrOutWithoutIn) {
		t.Fatalf("out error = %v, want ErrOutWithoutIn", err)
	}

	var count int64
	database.DB.Model(&models.WeighingSession{}).Count(&count)
	if count != 0 {
		t.Errorf("session rows after failed out = %d, want 0", count)
	}
}

func TestConsumeOpenPairingOnlyOnce(t *testing.T) {
	setupTestDB(t)

	in := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-20", Weight: 1000, Produce: "grape"})

	// a consume keyed to a stale session id must not touch the live pairing
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return consumeOpen(tx, "T-20", in.ID+1)
	})
	if !errors.Is(err, ErrOutWithoutIn) {
		t.Fatalf("stale consume error = %v, want ErrOutWithoutIn", err)
	}

	// the live pairing is consumable exactly once
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return consumeOpen(tx, "T-20", in.ID)
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return consumeOpen(tx, "T-20", in.ID)
	})
	if !errors.Is(err, ErrOutWithoutIn) {
		t.Fatalf("second consume error = %v, want ErrOutWithoutIn", err)
	}

	// and with the index row gone, a real out is refused
	if _, err := Record(RecordRequest{Direction: models.DirectionOut, Truck: "T-20", Weight: 600}); !errors.Is(err, ErrOutWithoutIn) {
		t.Errorf("out after consumed pairing error = %v, want ErrOutWithoutIn", err)
	}
}

func TestClaimOpenPairingGone(t *testing.T) {
	setupTestDB(t)

	in := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-21", Weight: 1000, Produce: "grape"})

	var claimed bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		claimed, err = claimOpen(tx, "T-21", in.ID+1)
		return err
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed {
		t.Error("claim with a stale session id succeeded, must report the pairing gone")
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		claimed, err = claimOpen(tx, "T-21", in.ID)
		return err
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed {
		t.Error("claim of the live pairing failed")
	}
}

func TestForceInAfterPairingConsumed(t *testing.T) {
	setupTestDB(t)

	first := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-22", Weight: 1000, Produce: "grape"})
	mustRecord(t, RecordRequest{Direction: models.DirectionOut, Truck: "T-22", Weight: 600})

	// with the pairing closed, a force in must open a new session, not
	// resurrect the finished one
	forced := mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-22", Weight: 1100, Produce: "melon", Force: true})
	if forced.ID == first.ID {
		t.Fatalf("forced in reused closed session id %d", first.ID)
	}

	out := mustRecord(t, RecordRequest{Direction: models.DirectionOut, Truck: "T-22", Weight: 700})
	if out.Bruto != 1100 {
		t.Errorf("out bruto = %d, want 1100 from the new pairing", out.Bruto)
	}
}

func TestRecordNone(t *testing.T) {
	setupTestDB(t)

	result := mustRecord(t, RecordRequest{Direction: models.DirectionNone, Weight: 450, Produce: models.NA})
	if result.Truck != models.NA {
		t.Errorf("none truck = %q, want na", result.Truck)
	}
	if result.Bruto != 450 {
		t.Errorf("none bruto = %d, want 450", result.Bruto)
	}

	// none never opens a pairing
	if _, err := Record(RecordRequest{Direction: models.DirectionOut, Truck: models.NA, Weight: 100}); !errors.Is(err, ErrOutWithoutIn) {
		t.Errorf("out after none error = %v, want ErrOutWithoutIn", err)
	}
}

func TestListSessionsFilterAndRange(t *testing.T) {
	setupTestDB(t)

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.Local)
	rows := []models.WeighingSession{
		{Datetime: base, Direction: models.DirectionIn, Truck: "T-1", Bruto: 1000, Produce: "apple"},
		{Datetime: base.Add(1 * time.Hour), Direction: models.DirectionOut, Truck: "T-1", Bruto: 1000, Produce: "apple"},
		{Datetime: base.Add(2 * time.Hour), Direction: models.DirectionNone, Truck: models.NA, Bruto: 300, Produce: models.NA},
		{Datetime: base.Add(26 * time.Hour), Direction: models.DirectionIn, Truck: "T-2", Bruto: 800, Produce: "grape"},
	}
	for i := range rows {
		if err := database.DB.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	got, err := ListSessions(base, base.Add(3*time.Hour), []models.Direction{models.DirectionIn})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 1 || got[0].ID != rows[0].ID {
		t.Fatalf("filtered list = %v, want only the first in-row", got)
	}

	// range bounds are inclusive on both ends
	got, err = ListSessions(base, base.Add(1*time.Hour), []models.Direction{models.DirectionIn, models.DirectionOut, models.DirectionNone})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("inclusive range returned %d rows, want 2", len(got))
	}
}

func TestGetSessionNotFound(t *testing.T) {
	setupTestDB(t)
	if _, err := GetSession(12345); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestGetItemTruck(t *testing.T) {
	setupTestDB(t)
	registerTare(t, "C-1", 100)

	mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-9", Containers: []string{"C-1"}, Weight: 1000, Produce: "apple"})
	mustRecord(t, RecordRequest{Direction: models.DirectionOut, Truck: "T-9", Containers: []string{"C-1"}, Weight: 600})

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	item, err := GetItem("T-9", from, to)
	if err != nil {
		t.Fatalf("GetItem truck: %v", err)
	}
	if item.Tara == nil || *item.Tara != 600 {
		t.Errorf("truck tara = %v, want 600 (latest out measurement)", item.Tara)
	}
	if len(item.Sessions) != 2 {
		t.Errorf("truck sessions = %v, want 2 ids", item.Sessions)
	}
}

func TestGetItemContainer(t *testing.T) {
	setupTestDB(t)
	registerTare(t, "C-7", 80)
	registerTare(t, "C-8", 0)

	mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-10", Containers: []string{"C-7"}, Weight: 1000, Produce: "apple"})

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	item, err := GetItem("C-7", from, to)
	if err != nil {
		t.Fatalf("GetItem container: %v", err)
	}
	if item.Tara == nil || *item.Tara != 80 {
		t.Errorf("container tara = %v, want 80", item.Tara)
	}
	if len(item.Sessions) != 1 {
		t.Errorf("container sessions = %v, want 1 id", item.Sessions)
	}

	// registered with weight 0: found, but tara unknown
	item, err = GetItem("C-8", from, to)
	if err != nil {
		t.Fatalf("GetItem zero-weight container: %v", err)
	}
	if item.Tara != nil {
		t.Errorf("zero-weight container tara = %d, want unknown", *item.Tara)
	}
}

func TestGetItemNotFound(t *testing.T) {
	setupTestDB(t)
	if _, err := GetItem("nothing-registered", time.Now().Add(-time.Hour), time.Now()); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("error = %v, want ErrItemNotFound", err)
	}
}

func TestUnknownContainers(t *testing.T) {
	setupTestDB(t)
	registerTare(t, "C-known", 90)
	registerTare(t, "C-zero", 0)

	mustRecord(t, RecordRequest{Direction: models.DirectionIn, Truck: "T-11", Containers: []string{"C-known", "C-unregistered"}, Weight: 1000, Produce: "apple"})

	ids, err := UnknownContainers()
	if err != nil {
		t.Fatalf("UnknownContainers: %v", err)
	}
	want := []string{"C-unregistered", "C-zero"}
	if len(ids) != len(want) {
		t.Fatalf("unknown = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unknown = %v, want %v", ids, want)
		}
	}
}
