package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"qr-hunt-backend/internal/qr"
	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type QRHandler struct {
	checkpointService *services.CheckpointService
	appURL            string
}

func NewQRHandler(checkpointService *services.CheckpointService, appURL string) *QRHandler {
	return &QRHandler{checkpointService: checkpointService, appURL: appURL}
}

type QRResponse struct {
	QRDataURL string `json:"qrDataUrl" example:"data:image/png;base64,iVBORw0..."`
	URL       string `json:"url" example:"https://hra.example.cz/game/0f8f.../scan/V1StGXR8_Z5jdHi6B-myT"`
}

// CheckpointQR godoc
// @Summary      QR code of a checkpoint
// @Description  PNG image by default, JSON with a data URL when format=json
// @Tags         qr
// @Produce      png
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Checkpoint ID"
// @Param        format query string false "png or json"
// @Success      200 {object} QRResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/checkpoints/{id}/qr [get]
func (h *QRHandler) CheckpointQR(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	cp, err := h.checkpointService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	url := qr.ScanURL(h.appURL, cp.GameID, cp.QRToken)

	if c.DefaultQuery("format", "png") == "json" {
		dataURL, err := qr.DataURL(url)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, QRResponse{QRDataURL: dataURL, URL: url})
		return
	}

	png, err := qr.PNG(url)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GameQRZip godoc
// @Summary      All QR codes of a game
// @Description  Zip archive with one PNG per checkpoint, numbered in play order
// @Tags         qr
// @Produce      application/zip
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/games/{id}/qr.zip [get]
func (h *QRHandler) GameQRZip(c *gin.Context) {
	gameID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	checkpoints, err := h.checkpointService.List(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(checkpoints) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game has no checkpoints"})
		return
	}

	items := make([]qr.Item, 0, len(checkpoints))
	for i, cp := range checkpoints {
		items = append(items, qr.Item{
			Filename: qr.FileName(i+1, cp.Name),
			Content:  qr.ScanURL(h.appURL, gameID, cp.QRToken),
		})
	}

	var buf bytes.Buffer
	if err := qr.WriteZip(&buf, items); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-codes-%s.zip"`, gameID))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}
