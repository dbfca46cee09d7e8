package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Leaderboard returns the top players by rank.
// GET /api/v1/leaderboard?limit=10
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, err := h.Admin.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Market returns the active shelter listings.
// GET /api/v1/shelter
func (h *Handler) Market(c *gin.Context) {
	listings, err := h.Shelter.Market(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "market unavailable"})
		return
	}

	type listing struct {
		ListingID int64  `json:"listing_id"`
		BetName   string `json:"bet_name"`
		BetRarity string `json:"bet_rarity"`
		BetLevel  int    `json:"bet_level"`
		Price     int64  `json:"price"`
	}
	out := make([]listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, listing{
			ListingID: l.ListingID,
			BetName:   l.BetName,
			BetRarity: string(l.BetRarity),
			BetLevel:  l.BetLevel,
			Price:     l.Price,
		})
	}
	c.JSON(http.StatusOK, gin.H{"listings": out})
}
