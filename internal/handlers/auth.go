package handlers

import (
	"net/http"

	"qr-hunt-backend/internal/middleware"
	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"admin@centro.cz"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type AuthResponse struct {
	Token string    `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	Admin AdminUser `json:"admin"`
}

// Login godoc
// @Summary      Login as admin
// @Description  Authenticate an admin user and return a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login data"
// @Success      200 {object} AuthResponse
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, admin, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, Admin: *admin})
}

// Me godoc
// @Summary      Current admin
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} AdminUser
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/admin/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	adminID, _ := c.MustGet(middleware.ContextAdminID).(uuid.UUID)

	admin, err := h.authService.GetAdmin(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}
