package tare

import (
	"weighbridge-backend/internal/database"
	"weighbridge-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertBatch applies a parsed batch atomically. The last record for a given
// container id wins, the same way repeated uploads overwrite earlier ones.
func UpsertBatch(records []Record) (int, error) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			row := models.ContainerTare{
				ContainerID: rec.ContainerID,
				Weight:      rec.Weight,
				Unit:        "kg",
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "container_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"weight", "unit", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
