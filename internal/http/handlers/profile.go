package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"

	"github.com/gin-gonic/gin"
)

type betView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Rarity    string `json:"rarity"`
	Level     int    `json:"level"`
	InLab     bool   `json:"in_lab"`
	InShelter bool   `json:"in_shelter"`
}

// Profile returns a player's public profile and collection.
// GET /api/v1/players/:tg_id
func (h *Handler) Profile(c *gin.Context) {
	tgID, err := strconv.ParseInt(c.Param("tg_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad tg_id"})
		return
	}

	player, err := h.Players.GetPlayerByTgID(c.Request.Context(), tgID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile unavailable"})
		return
	}

	bets, err := h.Players.OwnedBets(c.Request.Context(), tgID, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile unavailable"})
		return
	}

	views := make([]betView, 0, len(bets))
	for _, b := range bets {
		views = append(views, betView{
			ID:        b.ID,
			Name:      b.Name,
			Rarity:    string(b.Rarity),
			Level:     b.Level,
			InLab:     b.InLab,
			InShelter: b.InShelter,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"rank":            player.Rank,
		"xp":              player.XP,
		"xp_to_next_rank": game.XPToNextRank(player.Rank),
		"neurons":         player.Neurons,
		"count_bets":      player.CountBets,
		"bets":            views,
	})
}
