package controllers

import (
	"errors"
	"net/http"

	"track-review-api/services"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything untyped is treated as an internal error and not echoed to the
// client.
func respondServiceError(c *gin.Context, err error) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		authz      *services.AuthorizationError
		state      *services.StateError
		capacity   *services.CapacityError
		conflict   *services.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Error()})
	case errors.As(err, &state):
		c.JSON(http.StatusConflict, gin.H{
			"error":  state.Error(),
			"status": state.Status,
		})
	case errors.As(err, &capacity):
		c.JSON(http.StatusConflict, gin.H{
			"error":   capacity.Error(),
			"kind":    capacity.Kind,
			"current": capacity.Current,
			"limit":   capacity.Limit,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := value.(int)
	return id, ok
}
