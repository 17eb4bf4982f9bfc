package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"qr-hunt-backend/internal/config"
	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/handlers"
	"qr-hunt-backend/internal/logger"
	"qr-hunt-backend/internal/notify"
	"qr-hunt-backend/internal/services"
	"qr-hunt-backend/internal/sheets"
	"qr-hunt-backend/internal/ws"

	_ "qr-hunt-backend/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           QR Hunt API
// @version         1.0
// @description     Scavenger hunt with QR checkpoints, completion codes and an admin console
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Warn("unknown time zone, using UTC", "tz", cfg.TimeZone, "error", err)
		loc = time.UTC
	}

	notifier, err := notify.New(cfg, log)
	if err != nil {
		log.Error("notifier setup failed", "driver", cfg.NotifyDriver, "error", err)
		os.Exit(1)
	}
	defer notifier.Close()

	var rosterSink handlers.RosterSink
	if cfg.GoogleServiceAccountJSON != "" && cfg.SheetsSpreadsheetID != "" {
		client, err := sheets.New(context.Background(), cfg.GoogleServiceAccountJSON, cfg.SheetsSpreadsheetID)
		if err != nil {
			log.Error("sheets client failed, roster sync disabled", "error", err)
		} else {
			log.Info("roster sync enabled", "spreadsheet", client.SpreadsheetID())
			rosterSink = client
		}
	} else {
		log.Info("GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SHEETS_SPREADSHEET_ID not set, roster sync disabled")
	}

	hub := ws.NewHub(log)

	authService := services.NewAuthService(db, cfg.JWTSecret)
	gameService := services.NewGameService(db, log)
	checkpointService := services.NewCheckpointService(db, log)
	rosterService := services.NewRosterService(db, loc)
	redemptionService := services.NewRedemptionService(db, log)
	gameplayService := services.NewGameplayService(db, log, notifier, services.GameplayOptions{
		DefaultReward:   cfg.DefaultRewardText,
		CodeMaxAttempts: cfg.CodeMaxAttempts,
	})

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.MessageResponse{Message: "ok"})
	})

	handlers.RegisterRoutes(r, handlers.Routes{
		AuthService: authService,
		Auth:        handlers.NewAuthHandler(authService),
		Play:        handlers.NewPlayHandler(gameplayService, gameService, hub),
		Games:       handlers.NewGameHandler(gameService),
		Checkpoints: handlers.NewCheckpointHandler(checkpointService),
		QR:          handlers.NewQRHandler(checkpointService, cfg.PublicAppURL),
		Players:     handlers.NewPlayerHandler(rosterService, rosterSink),
		Redemptions: handlers.NewRedemptionHandler(redemptionService, hub),
		WS:          handlers.NewWSHandler(hub),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	gameplayService.Wait()
	log.Info("bye")
}
