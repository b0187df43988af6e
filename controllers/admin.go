package controllers

import (
	"net/http"
	"strconv"

	"track-review-api/services"

	"github.com/gin-gonic/gin"
)

// AssignTrack kicks the queue scheduler for a track. Redundant calls are
// safe; the scheduler recomputes open slots every time.
func AssignTrack(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("id"))
	if err != nil || trackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	service := services.NewQueueAssignmentService(nil)
	summary, err := service.Assign(c.Request.Context(), trackID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}

type ReassignRequest struct {
	CurrentReviewerID int `json:"current_reviewer_id" binding:"required"`
	NewReviewerID     int `json:"new_reviewer_id" binding:"required"`
}

// ReassignTrack swaps one assigned reviewer for another.
func ReassignTrack(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("id"))
	if err != nil || trackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := services.NewReassignService(nil)
	reviewID, err := service.Reassign(c.Request.Context(), trackID, req.CurrentReviewerID, req.NewReviewerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"review_id": reviewID,
	})
}

// CheckEligibility explains why a reviewer can or cannot be assigned to a
// track. Diagnostic tool; no side effects.
func CheckEligibility(c *gin.Context) {
	trackID, err := strconv.Atoi(c.Param("id"))
	if err != nil || trackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}
	reviewerID, err := strconv.Atoi(c.Param("reviewer_id"))
	if err != nil || reviewerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewer ID"})
		return
	}

	service := services.NewEligibilityService(nil)
	eligible, reasons, err := service.Check(c.Request.Context(), trackID, reviewerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"eligible": eligible,
		"reasons":  reasons,
	})
}

// RecomputeReputation rebuilds a reviewer's totals, average rating and tier
// from their review history. Useful after manual data fixes.
func RecomputeReputation(c *gin.Context) {
	reviewerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewer ID"})
		return
	}

	service := services.NewReputationService(nil)
	profile, err := service.UpdateReputation(c.Request.Context(), reviewerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
	})
}

// SweepExpiredQueue runs one reaper pass over overdue queue entries.
func SweepExpiredQueue(c *gin.Context) {
	service := services.NewExpiryService(nil)
	summary, err := service.SweepExpired(c.Request.Context())
	if err != nil {
		if err == services.ErrSweepAlreadyRunning {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}
