package http

import (
	"time"

	"bets_bot/internal/http/handlers"
	"bets_bot/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the read-only game API and the admin API onto the
// engine. The chat bot is the write path; HTTP only serves lookups,
// health probes and admin operations.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, h *handlers.Handler, version string) {
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(60, time.Minute))

	v1.GET("/leaderboard", h.Leaderboard)
	v1.GET("/players/:tg_id", h.Profile)
	v1.GET("/shelter", h.Market)

	admin := v1.Group("/admin")
	admin.Use(middleware.JWT())
	{
		admin.GET("/stats", h.Stats)
		admin.POST("/grant", h.Grant)
		admin.POST("/promo", h.CreatePromo)
	}
}
