package config

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tambolahq/tambola-backend/models"
)

var DB *gorm.DB

// SetupDatabase connects and migrates the archive schema. A missing DSN is
// not an error: the archive is an optional feature, room state never
// touches the database either way.
func SetupDatabase(dsn string) *gorm.DB {
	if dsn == "" {
		log.Println("[INFO] DATABASE_URL not set, game archive disabled")
		return nil
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to DB: %v", err)
	}

	if err := db.AutoMigrate(&models.GameRecord{}); err != nil {
		log.Fatalf("[FATAL] Migration failed: %v", err)
	}

	DB = db
	log.Println("[INFO] Database connected, game archive enabled")
	return db
}
