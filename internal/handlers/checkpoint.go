package handlers

import (
	"net/http"

	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type CheckpointHandler struct {
	checkpointService *services.CheckpointService
}

func NewCheckpointHandler(checkpointService *services.CheckpointService) *CheckpointHandler {
	return &CheckpointHandler{checkpointService: checkpointService}
}

type CreateCheckpointRequest struct {
	Name               string   `json:"name" binding:"required,max=255" example:"Fontána"`
	Question           string   `json:"question" binding:"required" example:"Kolik trysek má fontána?"`
	Answers            []string `json:"answers" binding:"required,min=2" example:"3,5,8"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex" binding:"required" example:"1"`
	OrderNumber        *int     `json:"orderNumber" example:"1"`
}

type UpdateCheckpointRequest struct {
	Name               *string  `json:"name" binding:"omitempty,max=255"`
	Question           *string  `json:"question"`
	Answers            []string `json:"answers" binding:"omitempty,min=2"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	OrderNumber        *int     `json:"orderNumber"`
}

// ListCheckpoints godoc
// @Summary      List checkpoints of a game
// @Tags         checkpoints
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {array} Checkpoint
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/checkpoints [get]
func (h *CheckpointHandler) ListCheckpoints(c *gin.Context) {
	gameID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	checkpoints, err := h.checkpointService.List(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkpoints)
}

// CreateCheckpoint godoc
// @Summary      Create a checkpoint
// @Description  A fresh QR token is generated; without orderNumber the checkpoint goes last
// @Tags         checkpoints
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Param        request body CreateCheckpointRequest true "Checkpoint data"
// @Success      201 {object} Checkpoint
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/checkpoints [post]
func (h *CheckpointHandler) CreateCheckpoint(c *gin.Context) {
	gameID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req CreateCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	cp, err := h.checkpointService.Create(c.Request.Context(), gameID, services.CheckpointInput{
		Name:               req.Name,
		Question:           req.Question,
		Answers:            req.Answers,
		CorrectAnswerIndex: *req.CorrectAnswerIndex,
		OrderNumber:        req.OrderNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

// UpdateCheckpoint godoc
// @Summary      Update a checkpoint
// @Tags         checkpoints
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Checkpoint ID"
// @Param        request body UpdateCheckpointRequest true "Fields to change"
// @Success      200 {object} Checkpoint
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/checkpoints/{id} [put]
func (h *CheckpointHandler) UpdateCheckpoint(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	cp, err := h.checkpointService.Update(c.Request.Context(), id, services.CheckpointUpdate{
		Name:               req.Name,
		Question:           req.Question,
		Answers:            req.Answers,
		CorrectAnswerIndex: req.CorrectAnswerIndex,
		OrderNumber:        req.OrderNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// DeleteCheckpoint godoc
// @Summary      Delete a checkpoint
// @Tags         checkpoints
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Checkpoint ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/checkpoints/{id} [delete]
func (h *CheckpointHandler) DeleteCheckpoint(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.checkpointService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "checkpoint deleted"})
}
