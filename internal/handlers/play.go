package handlers

import (
	"net/http"

	"qr-hunt-backend/internal/services"
	"qr-hunt-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PlayHandler struct {
	gameplay *services.GameplayService
	games    *services.GameService
	hub      *ws.Hub
}

func NewPlayHandler(gameplay *services.GameplayService, games *services.GameService, hub *ws.Hub) *PlayHandler {
	return &PlayHandler{gameplay: gameplay, games: games, hub: hub}
}

type RegisterRequest struct {
	GameID           string `json:"gameId" binding:"required,uuid" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	Name             string `json:"name" binding:"required,max=255" example:"Jana Nováková"`
	Email            string `json:"email" binding:"required,max=320" example:"jana@example.com"`
	GDPRConsent      bool   `json:"gdprConsent" example:"true"`
	MarketingConsent bool   `json:"marketingConsent" example:"false"`
}

type AnswerRequest struct {
	SessionToken string `json:"sessionToken" binding:"required"`
	CheckpointID string `json:"checkpointId" binding:"required,uuid"`
	AnswerIndex  *int   `json:"answerIndex" binding:"required" example:"1"`
}

type CompleteRequest struct {
	SessionToken string `json:"sessionToken" binding:"required"`
}

// Scan godoc
// @Summary      Resolve a scanned QR code
// @Description  Tells the client whether to register, ask the question, or show a finished state
// @Tags         play
// @Produce      json
// @Param        token   query string true  "QR token"
// @Param        session query string false "Player session token"
// @Success      200 {object} services.ScanResult
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/scan [get]
func (h *PlayHandler) Scan(c *gin.Context) {
	result, err := h.gameplay.Scan(c.Request.Context(), c.Query("token"), c.Query("session"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Register godoc
// @Summary      Register a player for a game
// @Description  Returns the existing session token when the email already plays this game
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Player data"
// @Success      201 {object} services.RegisterResult
// @Success      200 {object} services.RegisterResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/register [post]
func (h *PlayHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.gameplay.Register(c.Request.Context(), services.RegisterInput{
		GameID:           uuid.MustParse(req.GameID),
		Name:             req.Name,
		Email:            req.Email,
		GDPRConsent:      req.GDPRConsent,
		MarketingConsent: req.MarketingConsent,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Returning {
		c.JSON(http.StatusOK, result)
		return
	}
	h.hub.Broadcast(result.Player.GameID, ws.EventPlayerRegistered, gin.H{
		"playerId": result.Player.ID,
		"name":     result.Player.Name,
		"email":    result.Player.Email,
	})
	c.JSON(http.StatusCreated, result)
}

// Answer godoc
// @Summary      Answer a checkpoint question
// @Description  Records the first answer only; a second attempt is a conflict
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        request body AnswerRequest true "Answer"
// @Success      200 {object} services.AnswerResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/answer [post]
func (h *PlayHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	checkpointID := uuid.MustParse(req.CheckpointID)
	result, err := h.gameplay.SubmitAnswer(c.Request.Context(), req.SessionToken, checkpointID, *req.AnswerIndex)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(result.GameID, ws.EventCheckpointAnswered, gin.H{
		"playerId":            result.PlayerID,
		"checkpointId":        checkpointID,
		"correct":             result.Correct,
		"answeredCheckpoints": result.Answered,
		"totalCheckpoints":    result.Total,
	})
	c.JSON(http.StatusOK, result)
}

// Progress godoc
// @Summary      Player progress in a game
// @Tags         play
// @Produce      json
// @Param        session query string true "Player session token"
// @Param        gameId  query string true "Game ID"
// @Success      200 {object} services.ProgressResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/progress [get]
func (h *PlayHandler) Progress(c *gin.Context) {
	gameID, err := uuid.Parse(c.Query("gameId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid gameId"})
		return
	}

	result, err := h.gameplay.Progress(c.Request.Context(), c.Query("session"), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Complete godoc
// @Summary      Claim the completion code
// @Description  Issues the redemption code once every checkpoint is answered
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        request body CompleteRequest true "Session"
// @Success      200 {object} services.CompletionResult
// @Failure      400 {object} IncompleteResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/complete [post]
func (h *PlayHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.gameplay.Complete(c.Request.Context(), req.SessionToken)
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.AlreadyCompleted {
		h.hub.Broadcast(result.GameID, ws.EventPlayerCompleted, gin.H{
			"playerId":       result.PlayerID,
			"completionCode": result.CompletionCode,
		})
	}
	c.JSON(http.StatusOK, result)
}

// GameInfo godoc
// @Summary      Public game details
// @Tags         play
// @Produce      json
// @Param        id path string true "Game ID"
// @Success      200 {object} services.GameInfo
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/games/{id} [get]
func (h *PlayHandler) GameInfo(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	info, err := h.games.Info(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
