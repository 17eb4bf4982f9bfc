package handlers

import (
	"errors"
	"net/http"

	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// IncompleteResponse is returned by /complete while checkpoints are left.
type IncompleteResponse struct {
	Error    string `json:"error" example:"not all checkpoints answered (2/3)"`
	Answered int    `json:"answeredCheckpoints" example:"2"`
	Total    int    `json:"totalCheckpoints" example:"3"`
}

// Type aliases so swag can resolve models in annotations.
type Game = models.Game
type Checkpoint = models.Checkpoint
type AdminUser = models.AdminUser

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// attached to the gin context for the request logger and hidden from clients.
func respondError(c *gin.Context, err error) {
	var incomplete *services.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		c.JSON(http.StatusBadRequest, IncompleteResponse{
			Error:    err.Error(),
			Answered: incomplete.Answered,
			Total:    incomplete.Total,
		})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrGameInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrAlreadyAnswered), errors.Is(err, services.ErrAlreadyRedeemed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
