package database

import (
	"log"

	"weighbridge-backend/internal/config"
	"weighbridge-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitWeight connects the weight service to its database and migrates the
// weighing schema. TranslateError is on so unique-key violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func InitWeight(cfg *config.Config) {
	DB = open(cfg.DatabaseDSN)

	if err := DB.AutoMigrate(
		&models.WeighingSession{},
		&models.OpenWeighing{},
		&models.ContainerTare{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Weight database connected, migration complete.")
}

// InitBilling connects the billing service to its database and migrates the
// provider/truck/rate schema.
func InitBilling(cfg *config.Config) {
	DB = open(cfg.BillingDSN)

	if err := DB.AutoMigrate(
		&models.Provider{},
		&models.Truck{},
		&models.Rate{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Billing database connected, migration complete.")
}

func open(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	return db
}

// Ping runs the liveness probe used by the /health endpoints.
func Ping() error {
	return DB.Exec("SELECT 1").Error
}
