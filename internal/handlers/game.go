package handlers

import (
	"net/http"

	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

type CreateGameRequest struct {
	Name              string  `json:"name" binding:"required,min=1,max=255" example:"Letní hra"`
	Description       *string `json:"description" example:"Projdi všechna stanoviště"`
	RewardDescription *string `json:"rewardDescription" example:"Káva zdarma"`
	IsActive          *bool   `json:"isActive" example:"true"`
}

type UpdateGameRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=255" example:"Letní hra"`
	Description       *string `json:"description"`
	RewardDescription *string `json:"rewardDescription"`
	IsActive          *bool   `json:"isActive"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required" example:"false"`
}

// ListGames godoc
// @Summary      List games
// @Description  All games with checkpoint and player counters
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.GameSummary
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/admin/games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	games, err := h.gameService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// CreateGame godoc
// @Summary      Create a game
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGameRequest true "Game data"
// @Success      201 {object} Game
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/admin/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	game, err := h.gameService.Create(c.Request.Context(), services.GameInput{
		Name:              req.Name,
		Description:       req.Description,
		RewardDescription: req.RewardDescription,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

// GetGame godoc
// @Summary      Get a game
// @Description  Game with its checkpoints in play order
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {object} Game
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	game, err := h.gameService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Only fields present in the body are changed
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Param        request body UpdateGameRequest true "Fields to change"
// @Success      200 {object} Game
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id} [put]
func (h *GameHandler) UpdateGame(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	game, err := h.gameService.Update(c.Request.Context(), id, services.GameUpdate{
		Name:              req.Name,
		Description:       req.Description,
		RewardDescription: req.RewardDescription,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// SetActive godoc
// @Summary      Activate or deactivate a game
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Param        request body SetActiveRequest true "Active flag"
// @Success      200 {object} Game
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/active [post]
func (h *GameHandler) SetActive(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	game, err := h.gameService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// CloneGame godoc
// @Summary      Clone a game
// @Description  Copies the game and its checkpoints; the copy is inactive and has new QR codes
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      201 {object} Game
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/clone [post]
func (h *GameHandler) CloneGame(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	game, err := h.gameService.Clone(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Removes the game with all checkpoints, players and answers
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id} [delete]
func (h *GameHandler) DeleteGame(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.gameService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "game deleted"})
}
