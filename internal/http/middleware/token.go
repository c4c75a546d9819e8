package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/aternos-bot/internal/token"
)

const (
	bearerTokenPrefix = "Bearer "

	// ClaimsKey holds the *token.UserClaims of JWT-authenticated requests.
	ClaimsKey = "claims"
)

// TokenAuth accepts either a JWT issued by the login route or the Discord
// bot token, so the bot and trusted scripts can call signed routes.
func TokenAuth(log *slog.Logger, maker *token.JWTMaker, botToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("No authorization header found")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Token not found",
			})
			return
		}

		if !strings.HasPrefix(authHeader, bearerTokenPrefix) {
			log.Debug("Invalid authorization scheme")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid authorization scheme, 'Bearer' prefix required",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, bearerTokenPrefix)

		if botToken != "" && subtle.ConstantTimeCompare([]byte(tokenStr), []byte(botToken)) == 1 {
			log.Info("Discord bot request received, skipping token validation")
			c.Next()
			return
		}

		if maker == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token.",
			})
			return
		}

		claims, err := maker.VerifyToken(tokenStr)
		if err != nil {
			log.Info("Rejected token", "error", err, "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token.",
			})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
