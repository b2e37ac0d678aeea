package pa

import (
	"context"
	"log"

	"github.com/himanshidesai31/kickera/internal/cache"
	"github.com/himanshidesai31/kickera/internal/models"
	"github.com/himanshidesai31/kickera/internal/services"
	"github.com/himanshidesai31/kickera/internal/utils"
)

// reconcile nettoie panier et wishlist après un paiement confirmé. Chaque
// étape est au mieux : un échec est loggé et n'affecte ni l'état payé ni
// les autres étapes.
func (h *Handler) reconcile(ctx context.Context, order *models.Order) {
	if order.UserID == "" {
		return // commande invité, rien à réconcilier
	}

	if err := h.Cart.Clear(ctx, order.UserID); err != nil {
		log.Printf("⚠️ Vidage panier de %s échoué après paiement %s: %v", order.UserID, order.ID, err)
	}

	productIDs, err := h.Wishlist.PopStash(ctx, order.UserID)
	if err != nil {
		log.Printf("⚠️ Lecture stash wishlist de %s échouée: %v", order.UserID, err)
		return
	}
	for _, productID := range productIDs {
		if err := h.Wishlist.Remove(ctx, order.UserID, productID); err != nil {
			log.Printf("⚠️ Retrait wishlist de %s échoué (produit %s): %v", order.UserID, productID, err)
		}
	}
}

// EmailNotifier envoie le mail de confirmation et archive le reçu dans
// MinIO. Tout part en goroutine : le callback passerelle ne doit jamais
// attendre le SMTP.
type EmailNotifier struct {
	StoreName string
}

func NewEmailNotifier(storeName string) *EmailNotifier {
	return &EmailNotifier{StoreName: storeName}
}

func (n *EmailNotifier) Notify(order *models.Order) {
	o := *order
	go func() {
		ctx := context.Background()

		html := utils.GenerateOrderConfirmationHTML(&o, n.StoreName)

		// 🪣 Archive du reçu, au mieux
		if err := services.UploadReceipt(ctx, o.ID.String(), []byte(html)); err != nil {
			log.Printf("⚠️ Archivage du reçu %s échoué: %v", o.ID, err)
		}

		if o.UserID == "" {
			return // invité : pas d'adresse mail connue
		}

		user, err := cache.GetUserFromCache(o.UserID)
		if err != nil {
			log.Printf("⚠️ Utilisateur %s introuvable pour le mail de confirmation: %v", o.UserID, err)
			return
		}

		subject := "Confirmation de votre commande " + o.ID.String()
		if err := utils.SendConfirmationEmail(user.Email, subject, html); err != nil {
			log.Printf("⚠️ Envoi mail de confirmation à %s échoué: %v", user.Email, err)
			return
		}
		log.Printf("📤 Mail de confirmation envoyé à %s (commande %s)", user.Email, o.ID)
	}()
}
