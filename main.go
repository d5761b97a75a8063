package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tambolahq/tambola-backend/config"
	"github.com/tambolahq/tambola-backend/routes"
	"github.com/tambolahq/tambola-backend/services"
)

// setupRouter initializes Gin routes and middleware
func setupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup REST routes
	routes.SetupRoutes(r)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket endpoint for room sessions
	r.GET("/ws", services.HandleWebSocket)

	return r
}

func main() {
	cfg := config.Load()

	// Connect to database (optional, archive only)
	db := config.SetupDatabase(cfg.DatabaseURL)

	// Initialize in-memory room service
	services.InitRoomService(cfg.CallInterval, cfg.ReaperGrace, db)

	router := setupRouter()

	log.Printf("Tambola backend server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
