package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tambolahq/tambola-backend/controllers"
)

func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ----------------------
	// Room routes
	// ----------------------
	api.POST("/rooms", controllers.CreateRoom) // Create a room
	api.GET("/rooms/:id", controllers.GetRoom) // Room status snapshot

	// ----------------------
	// Archive routes
	// ----------------------
	api.GET("/games", controllers.ListGames) // Finished game history
}
