package models

import "time"

// RateScopeAll applies a rate to every provider without a specific one.
const RateScopeAll = "ALL"

// Rate - price per kg of produce, scoped to one provider or to ALL.
// Rate uploads replace the whole table, so there are no update timestamps.
type Rate struct {
	ID        uint   `gorm:"primaryKey"`
	Product   string `gorm:"size:100;not null;index"`
	Rate      int    `gorm:"not null"`                      // price per kg, in agorot
	Scope     string `gorm:"size:20;not null;default:ALL"`  // provider id or "ALL"
	CreatedAt time.Time
}
