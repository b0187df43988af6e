package controllers

import (
	"net/http"
	"strconv"

	"track-review-api/services"

	"github.com/gin-gonic/gin"
)

type FlagReviewRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FlagReview lets a track owner flag a completed review. Past the flag
// threshold this restricts the reviewer and expires their other assignments.
func FlagReview(c *gin.Context) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req FlagReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewFlagService(nil)
	result, err := service.Flag(c.Request.Context(), reviewID, userID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// MarkUnplayable lets the assigned reviewer report a broken track link.
func MarkUnplayable(c *gin.Context) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	service := services.NewFlagService(nil)
	if err := service.MarkUnplayable(c.Request.Context(), reviewID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Assignment released and track owner notified",
	})
}

type RateReviewRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// RateReview stores the owner's 1-5 rating and refreshes the reviewer's
// reputation and tier.
func RateReview(c *gin.Context) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req RateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewReputationService(nil)
	if err := service.RateReview(c.Request.Context(), reviewID, userID, req.Rating); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AwardGem marks a completed review as a gem.
func AwardGem(c *gin.Context) {
	setGem(c, true)
}

// RevokeGem removes the gem marker.
func RevokeGem(c *gin.Context) {
	setGem(c, false)
}

func setGem(c *gin.Context, isGem bool) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	service := services.NewReputationService(nil)
	if err := service.SetGem(c.Request.Context(), reviewID, userID, isGem); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
