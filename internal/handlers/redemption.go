package handlers

import (
	"net/http"

	"qr-hunt-backend/internal/services"
	"qr-hunt-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type RedemptionHandler struct {
	redemptionService *services.RedemptionService
	hub               *ws.Hub
}

func NewRedemptionHandler(redemptionService *services.RedemptionService, hub *ws.Hub) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService, hub: hub}
}

type CodeRequest struct {
	Code string `json:"code" binding:"required" example:"K7M2XP9Q"`
}

// Verify godoc
// @Summary      Look up a completion code
// @Tags         redemptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CodeRequest true "Code"
// @Success      200 {object} services.VerifyResult
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/redemptions/verify [post]
func (h *RedemptionHandler) Verify(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.redemptionService.Verify(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Redeem godoc
// @Summary      Hand out the reward
// @Description  Marks the code as redeemed; a code can be redeemed once
// @Tags         redemptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CodeRequest true "Code"
// @Success      200 {object} services.RedeemResult
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/admin/redemptions/redeem [post]
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(result.GameID, ws.EventCodeRedeemed, gin.H{
		"playerName": result.PlayerName,
		"redeemedAt": result.RedeemedAt,
	})
	c.JSON(http.StatusOK, result)
}
