package middleware

import (
	"net/http"
	"strings"

	"bets_bot/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT validates the Authorization bearer token and stores the Telegram id
// it was issued for under "tg_id".
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		tgID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("tg_id", tgID)
		c.Next()
	}
}

// TgID reads the Telegram id the JWT middleware stored.
func TgID(c *gin.Context) int64 {
	v, _ := c.Get("tg_id")
	id, _ := v.(int64)
	return id
}
