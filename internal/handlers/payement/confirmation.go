package pa

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/himanshidesai31/kickera/internal/models"
	"github.com/himanshidesai31/kickera/internal/services"
)

//
// 🧾 GET /api/payment/confirmation
//
// Résolution en deux temps : l'order_id explicite du callback d'abord,
// sinon la dernière commande payée de l'acheteur connecté. Le chemin de
// secours est purement UX : il peut montrer une autre commande payée si
// plusieurs onglets paient en parallèle, il ne décide jamais d'un état.
func (h *Handler) Confirmation(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("order_id"); raw != "" {
		oid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
			return
		}

		order, err := h.Store.FindByID(ctx, gocql.UUID(oid))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		h.renderConfirmation(c, order)
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	order, err := h.Store.FindLatestPaidForBuyer(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	h.renderConfirmation(c, order)
}

func (h *Handler) renderConfirmation(c *gin.Context, order *models.Order) {
	resp := gin.H{
		"order":          order,
		"payment_status": order.PaymentStatus,
	}
	if order.PaymentStatus == models.PaymentPaid {
		if url := services.ReceiptURL(c.Request.Context(), order.ID.String()); url != "" {
			resp["receipt_url"] = url
		}
	}
	c.JSON(http.StatusOK, resp)
}
