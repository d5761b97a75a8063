package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/tambolahq/tambola-backend/config"
)

func main() {
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("[FATAL] DATABASE_URL is required to migrate")
	}
	db := config.SetupDatabase(dsn) // connects + migrates
	_ = db
	log.Println("Database migration completed successfully")
}
