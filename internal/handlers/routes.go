package handlers

import (
	"qr-hunt-backend/internal/middleware"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted by RegisterRoutes.
type Routes struct {
	AuthService *services.AuthService

	Auth        *AuthHandler
	Play        *PlayHandler
	Games       *GameHandler
	Checkpoints *CheckpointHandler
	QR          *QRHandler
	Players     *PlayerHandler
	Redemptions *RedemptionHandler
	WS          *WSHandler
}

func RegisterRoutes(r *gin.Engine, h Routes) {
	superadmin := middleware.RequireRole(models.RoleSuperAdmin)
	anyAdmin := middleware.RequireRole(models.RoleSuperAdmin, models.RoleStaff)

	r.GET("/ws/admin/games/:id", middleware.QueryTokenAuth(h.AuthService), superadmin, h.WS.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		api.GET("/scan", h.Play.Scan)
		api.POST("/register", h.Play.Register)
		api.POST("/answer", h.Play.Answer)
		api.GET("/progress", h.Play.Progress)
		api.POST("/complete", h.Play.Complete)
		api.GET("/games/:id", h.Play.GameInfo)
	}

	admin := api.Group("/admin")
	admin.POST("/auth/login", h.Auth.Login)

	authed := admin.Group("")
	authed.Use(middleware.JWTAuth(h.AuthService))
	{
		authed.GET("/me", h.Auth.Me)

		redemptions := authed.Group("/redemptions")
		redemptions.Use(anyAdmin)
		{
			redemptions.POST("/verify", h.Redemptions.Verify)
			redemptions.POST("/redeem", h.Redemptions.Redeem)
		}

		games := authed.Group("/games")
		games.Use(superadmin)
		{
			games.GET("", h.Games.ListGames)
			games.POST("", h.Games.CreateGame)
			games.GET("/:id", h.Games.GetGame)
			games.PUT("/:id", h.Games.UpdateGame)
			games.DELETE("/:id", h.Games.DeleteGame)
			games.POST("/:id/active", h.Games.SetActive)
			games.POST("/:id/clone", h.Games.CloneGame)
			games.GET("/:id/checkpoints", h.Checkpoints.ListCheckpoints)
			games.POST("/:id/checkpoints", h.Checkpoints.CreateCheckpoint)
			games.GET("/:id/players", h.Players.ListPlayers)
			games.POST("/:id/players/sync", h.Players.SyncPlayers)
			games.GET("/:id/qr.zip", h.QR.GameQRZip)
		}

		checkpoints := authed.Group("/checkpoints")
		checkpoints.Use(superadmin)
		{
			checkpoints.PUT("/:id", h.Checkpoints.UpdateCheckpoint)
			checkpoints.DELETE("/:id", h.Checkpoints.DeleteCheckpoint)
			checkpoints.GET("/:id/qr", h.QR.CheckpointQR)
		}
	}
}
