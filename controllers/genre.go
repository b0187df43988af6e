package controllers

import (
	"net/http"

	"track-review-api/config"
	"track-review-api/models"

	"github.com/gin-gonic/gin"
)

// GetGenres returns the genre taxonomy.
func GetGenres(c *gin.Context) {
	var genres []models.Genre
	if err := config.DB.Where("delete_at IS NULL").Order("name ASC").Find(&genres).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch genres"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"genres":  genres,
		"total":   len(genres),
	})
}
