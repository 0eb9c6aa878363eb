package models

import "time"

// Truck - license id and owning provider
type Truck struct {
	ID         string   `gorm:"primaryKey;size:50"` // license plate
	ProviderID uint     `gorm:"index;not null"`
	Provider   Provider `gorm:"foreignKey:ProviderID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
