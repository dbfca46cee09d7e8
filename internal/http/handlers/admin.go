package handlers

import (
	"net/http"
	"time"

	"bets_bot/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Stats returns the operational snapshot.
// GET /api/v1/admin/stats
func (h *Handler) Stats(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	stats, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Grant credits neurons to a player.
// POST /api/v1/admin/grant
func (h *Handler) Grant(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req struct {
		TgID   int64 `json:"tg_id" binding:"required"`
		Amount int64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	balance, err := h.Admin.GrantNeurons(c.Request.Context(), req.TgID, req.Amount)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// CreatePromo mints a promo code.
// POST /api/v1/admin/promo
func (h *Handler) CreatePromo(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req struct {
		Code     string `json:"code"`
		Reward   int64  `json:"reward" binding:"required"`
		MaxUses  int    `json:"max_uses"`
		TTLHours int    `json:"ttl_hours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	promo, err := h.Promos.CreateCode(c.Request.Context(), req.Code, req.Reward,
		req.MaxUses, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": promo.Code, "reward": promo.RewardNeurons})
}

func (h *Handler) requireAdmin(c *gin.Context) bool {
	if !h.Admin.IsAdmin(middleware.TgID(c)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return false
	}
	return true
}
