package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/himanshidesai31/kickera/internal/database"
)

const (
	// Limites par endpoint
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	APIMaxRequests      = 100 // Par minute pour les endpoints généraux

	// Durées de cooldown
	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	APICooldown      = 1 * time.Minute
)

// rateLimit incrémente un compteur Redis et bloque au-delà de la limite
func rateLimit(key string, max int, cooldown time.Duration) (bool, error) {
	ctx := context.Background()

	count, err := database.Redis.Incr(ctx, key).Result()
	if err != nil {
		return true, err // Redis indisponible : on laisse passer
	}
	if count == 1 {
		database.Redis.Expire(ctx, key, cooldown)
	}

	return count <= int64(max), nil
}

// AuthRateLimit limite les tentatives login/register par adresse IP
func AuthRateLimit(name string, max int, cooldown time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", name, c.ClientIP())

		allowed, _ := rateLimit(key, max, cooldown)
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Trop de tentatives, réessayez plus tard"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIRateLimit limite les endpoints généraux par IP
func APIRateLimit() gin.HandlerFunc {
	return AuthRateLimit("api", APIMaxRequests, APICooldown)
}
