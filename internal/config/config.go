package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	WeightHTTPPort   string
	BillingHTTPPort  string
	CIHTTPPort       string
	DatabaseDSN      string // weight service database
	BillingDSN       string // billing service database
	CORSOrigins      string
	UploadDir        string // folder where batch files (container tares, rates) are dropped
	WeightServiceURL string
	SMTPHost         string
	SMTPPort         string
	SMTPFrom         string
	CINotifyEmail    string // empty disables CI mail notifications
}

func Load() *Config {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		WeightHTTPPort:   getEnv("WEIGHT_HTTP_PORT", "8080"),
		BillingHTTPPort:  getEnv("BILLING_HTTP_PORT", "8081"),
		CIHTTPPort:       getEnv("CI_HTTP_PORT", "8082"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=weight port=5432 sslmode=disable"),
		BillingDSN:       getEnv("BILLING_DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=billing port=5432 sslmode=disable"),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		UploadDir:        getEnv("UPLOAD_DIR", "./in"),
		WeightServiceURL: getEnv("WEIGHT_SERVICE_URL", "http://localhost:8080"),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPFrom:         getEnv("SMTP_FROM", ""),
		CINotifyEmail:    getEnv("CI_NOTIFY_EMAIL", ""),
	}

	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=weight port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN is using the default value, set your own Postgres connection for production.")
	}
	if cfg.CINotifyEmail != "" && cfg.SMTPFrom == "" {
		log.Println("[WARN] CI_NOTIFY_EMAIL is set but SMTP_FROM is empty, CI mails will fail.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
