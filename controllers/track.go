package controllers

import (
	"net/http"
	"strconv"
	"time"

	"track-review-api/config"
	"track-review-api/models"
	"track-review-api/services"

	"github.com/gin-gonic/gin"
)

var packageReviewCounts = map[string]int{
	models.PackageStarter:         1,
	models.PackageStandard:        3,
	models.PackagePro:             5,
	models.PackageDeepDive:        5,
	models.PackagePeer:            3,
	models.PackageReleaseDecision: 1,
}

type CreateTrackRequest struct {
	Title       string `json:"title" binding:"required"`
	PackageType string `json:"package_type" binding:"required"`
	GenreIDs    []int  `json:"genre_ids" binding:"required,min=1"`
}

// CreateTrack registers a new UPLOADED track for the calling artist. The
// track holds no slot until it is activated.
func CreateTrack(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req CreateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewsRequested, known := packageReviewCounts[req.PackageType]
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown package type"})
		return
	}

	var genres []models.Genre
	if err := config.DB.Where("genre_id IN ? AND delete_at IS NULL", req.GenreIDs).
		Find(&genres).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load genres"})
		return
	}
	if len(genres) != len(req.GenreIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "One or more genres are unknown"})
		return
	}

	now := time.Now()
	track := models.Track{
		OwnerArtistID:    userID,
		Title:            req.Title,
		PackageType:      req.PackageType,
		Status:           models.TrackStatusUploaded,
		ReviewsRequested: reviewsRequested,
		CreateAt:         &now,
		UpdateAt:         &now,
		Genres:           genres,
	}
	if err := config.DB.Create(&track).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create track"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"track":   track,
	})
}

// GetTrack returns one track with its reviews, for the owner or an admin.
func GetTrack(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("id"))
	if err != nil || trackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	userID, _ := currentUserID(c)
	roleID, _ := c.Get("roleID")

	var track models.Track
	if err := config.DB.Preload("Genres").
		Where("track_id = ? AND delete_at IS NULL", trackID).
		First(&track).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	if track.OwnerArtistID != userID && roleID != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your track"})
		return
	}

	var reviews []models.Review
	if err := config.DB.Where("track_id = ?", trackID).
		Order("create_at ASC").
		Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"track":   track,
		"reviews": reviews,
	})
}

// ActivateTrack admits the track into the review queue, subject to the
// artist's slot limit.
func ActivateTrack(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("id"))
	if err != nil || trackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	service := services.NewSlotService(nil)
	if err := service.ActivateTrack(c.Request.Context(), trackID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Track queued for review",
	})
}

// GetSlotAvailability reports the calling artist's active-track capacity.
func GetSlotAvailability(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	service := services.NewSlotService(nil)
	availability, err := service.CheckSlotAvailable(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"slots":   availability,
	})
}

// ClaimTrack lets a peer artist claim an open slot on a PEER track.
func ClaimTrack(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("id"))
	if err != nil || trackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	service := services.NewClaimService(nil)
	reviewID, err := service.Claim(c.Request.Context(), trackID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"review_id": reviewID,
	})
}
