package handlers

import (
	"context"
	"fmt"
	"net/http"

	"qr-hunt-backend/internal/services"
	"qr-hunt-backend/internal/sheets"

	"github.com/gin-gonic/gin"
)

// RosterSink receives the exported roster rows. The Google Sheets client
// satisfies it.
type RosterSink interface {
	ReplaceTab(ctx context.Context, tab string, rows [][]string) error
}

type PlayerHandler struct {
	rosterService *services.RosterService
	sink          RosterSink
}

// NewPlayerHandler accepts a nil sink when roster sync is not configured.
func NewPlayerHandler(rosterService *services.RosterService, sink RosterSink) *PlayerHandler {
	return &PlayerHandler{rosterService: rosterService, sink: sink}
}

type SyncResponse struct {
	Tab  string `json:"tab" example:"Letní hra"`
	Rows int    `json:"rows" example:"42"`
}

// ListPlayers godoc
// @Summary      Players of a game
// @Description  JSON list with progress, or a CSV export when format=csv
// @Tags         players
// @Produce      json
// @Produce      text/csv
// @Security     BearerAuth
// @Param        id     path  string true  "Game ID"
// @Param        q      query string false "Name or email contains"
// @Param        status query string false "in_progress, completed or redeemed"
// @Param        format query string false "json or csv"
// @Success      200 {object} services.Roster
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/players [get]
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	gameID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	roster, err := h.rosterService.List(c.Request.Context(), gameID, services.RosterFilter{
		Query:  c.Query("q"),
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if c.DefaultQuery("format", "json") == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"players-%s.csv\"", gameID))
		c.Status(http.StatusOK)
		if err := h.rosterService.WriteCSV(c.Writer, roster); err != nil {
			_ = c.Error(err)
		}
		return
	}

	c.JSON(http.StatusOK, roster)
}

// SyncPlayers godoc
// @Summary      Push players to Google Sheets
// @Description  Replaces the game's tab in the configured spreadsheet with the export rows
// @Tags         players
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {object} SyncResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/players/sync [post]
func (h *PlayerHandler) SyncPlayers(c *gin.Context) {
	if h.sink == nil {
		respondError(c, fmt.Errorf("sheets sync: %w", services.ErrUnavailable))
		return
	}

	gameID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	roster, err := h.rosterService.List(c.Request.Context(), gameID, services.RosterFilter{})
	if err != nil {
		respondError(c, err)
		return
	}

	rows := h.rosterService.Records(roster)
	tab := sheets.TabTitle(roster.GameName)
	if err := h.sink.ReplaceTab(c.Request.Context(), tab, rows); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Tab: tab, Rows: len(rows) - 1})
}
