package user

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/himanshidesai31/kickera/internal/store"
)

// GetMyOrders liste les commandes de l'acheteur connecté, plus récentes
// d'abord. GET /api/orders
func GetMyOrders(orders store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			return
		}

		list, err := orders.ListForBuyer(c.Request.Context(), userID)
		if err != nil {
			log.Printf("❌ Erreur lecture commandes de %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}
