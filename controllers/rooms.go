package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tambolahq/tambola-backend/services"
)

// CreateRoom allocates an empty room. The creator becomes host once they
// join it over the websocket.
func CreateRoom(c *gin.Context) {
	room := services.Rooms.Create("")
	c.JSON(http.StatusCreated, gin.H{"room_id": room.ID})
}

// GetRoom returns a status snapshot of one room.
func GetRoom(c *gin.Context) {
	room, err := services.Rooms.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, room.Status())
}
