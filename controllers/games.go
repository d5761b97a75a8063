package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tambolahq/tambola-backend/config"
	"github.com/tambolahq/tambola-backend/models"
)

// ListGames returns archived finished games, newest first. With the archive
// disabled the list is simply empty.
func ListGames(c *gin.Context) {
	if config.DB == nil {
		c.JSON(http.StatusOK, []models.GameRecord{})
		return
	}

	var games []models.GameRecord
	if err := config.DB.Order("created_at DESC").Limit(100).Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch games"})
		return
	}
	c.JSON(http.StatusOK, games)
}
