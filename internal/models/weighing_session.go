package models

import "time"

// NA marks absent truck/produce values at the API boundary.
const NA = "na"

// Direction - classification of a weighing event
type Direction string

const (
	DirectionIn   Direction = "in"   // truck entering the yard, loaded
	DirectionOut  Direction = "out"  // truck leaving the yard, unloaded
	DirectionNone Direction = "none" // standalone weighing, no truck
)

func (d Direction) Valid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionNone:
		return true
	}
	return false
}

// WeighingSession - one row per directional weighing event
type WeighingSession struct {
	ID         uint      `gorm:"primaryKey"`
	Datetime   time.Time `gorm:"index;not null"`               // event time, used for range queries
	Direction  Direction `gorm:"type:varchar(8);not null;index"`
	Truck      string    `gorm:"size:50;index;not null"`       // "na" for direction=none
	Containers string    `gorm:"size:500"`                     // comma-joined container ids, split at the boundary
	Bruto      int       `gorm:"not null"`                     // kg; on "out" rows copied from the matching "in"
	TruckTara  *int      // kg; the out-event's own measured weight, "out" rows only
	Neto       *int      // kg; NULL when any container tare is unknown
	Produce    string    `gorm:"size:100;not null;default:na"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OpenWeighing - explicit per-truck open "in" session index.
// The primary key on TruckID is what serializes concurrent in/out requests
// for the same truck: two transactions cannot both insert the row.
type OpenWeighing struct {
	TruckID   string `gorm:"primaryKey;size:50"`
	SessionID uint   `gorm:"not null"`
	CreatedAt time.Time
}
