package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	botpkg "bets_bot/internal/bot"
	"bets_bot/internal/config"
	"bets_bot/internal/db"
	httpServer "bets_bot/internal/http"
	"bets_bot/internal/http/handlers"
	"bets_bot/internal/http/middleware"
	"bets_bot/internal/logger"
	"bets_bot/internal/service"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram authorization failed", "error", err)
	}
	notifier := botpkg.NewNotifier(api)

	players := service.NewPlayerService(dbPool, cfg.StartingNeurons)
	merges := service.NewMergeService(dbPool, players, notifier)
	draws := service.NewNoshenieService(dbPool, players)
	lab := service.NewLabService(dbPool, players)
	shelter := service.NewShelterService(dbPool, players, notifier)
	promos := service.NewPromoService(dbPool, players)
	admin := service.NewAdminService(dbPool, players, notifier, cfg.AdminTelegramIDs)

	b := botpkg.New(api, botpkg.Deps{
		Players: players,
		Merges:  merges,
		Draws:   draws,
		Lab:     lab,
		Shelter: shelter,
		Promos:  promos,
		Admin:   admin,
	})
	go b.Start()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandler(dbPool, players, admin, promos, shelter)
	httpServer.RegisterRoutes(r, dbPool, h, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	b.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
