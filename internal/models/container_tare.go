package models

import "time"

// ContainerTare - registered empty weight of a container.
// Weight 0 means the container was seen but its tare is not known.
type ContainerTare struct {
	ID          uint   `gorm:"primaryKey"`
	ContainerID string `gorm:"uniqueIndex;size:50;not null"`
	Weight      int    `gorm:"not null"`                    // kg
	Unit        string `gorm:"size:8;not null;default:kg"`  // always stored as kg after normalization
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
