package pa

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/himanshidesai31/kickera/internal/gateway"
	"github.com/himanshidesai31/kickera/internal/models"
	"github.com/himanshidesai31/kickera/internal/store"
	"github.com/himanshidesai31/kickera/internal/utils"
)

// CartService est la vue panier consommée par le checkout : le total fixe
// le montant de la commande, et le panier est vidé une fois le paiement
// confirmé.
type CartService interface {
	Total(ctx context.Context, userID string) (float64, error)
	Clear(ctx context.Context, userID string) error
}

// WishlistService met de côté les entrées wishlist fournies au checkout
// ("acheter maintenant"), et ne les retire de la wishlist qu'après
// confirmation du paiement.
type WishlistService interface {
	Stash(ctx context.Context, userID string, productIDs []gocql.UUID) error
	PopStash(ctx context.Context, userID string) ([]gocql.UUID, error)
	Remove(ctx context.Context, userID string, productID gocql.UUID) error
}

// ProductFinder résout le produit ciblé par le checkout
type ProductFinder interface {
	Find(ctx context.Context, productID gocql.UUID) (*models.Product, error)
}

// AddressChecker résout l'adresse de livraison : celle fournie (si elle
// appartient bien à l'acheteur) ou son adresse par défaut
type AddressChecker interface {
	Owns(ctx context.Context, userID string, addressID gocql.UUID) (bool, error)
	DefaultFor(ctx context.Context, userID string) (*gocql.UUID, error)
}

// Notifier est déclenché après une transition vers "paid". Jamais bloquant :
// l'implémentation de production part en goroutine.
type Notifier interface {
	Notify(order *models.Order)
}

// Handler porte le flux de paiement complet : initiation, callback
// passerelle, réconciliation et page de confirmation. Toutes les
// dépendances sont injectées, rien de global ici.
type Handler struct {
	Store     store.OrderStore
	Gateway   *gateway.Client
	Cart      CartService
	Wishlist  WishlistService
	Products  ProductFinder
	Addresses AddressChecker
	Notifier  Notifier

	CallbackURL     string
	ConfirmationURL string
	StoreName       string
	UPIAddress      string
}

func NewHandler(orders store.OrderStore, gw *gateway.Client, cart CartService,
	wishlist WishlistService, products ProductFinder, addresses AddressChecker,
	notifier Notifier, callbackURL, confirmationURL, storeName, upiAddress string) *Handler {
	return &Handler{
		Store:           orders,
		Gateway:         gw,
		Cart:            cart,
		Wishlist:        wishlist,
		Products:        products,
		Addresses:       addresses,
		Notifier:        notifier,
		CallbackURL:     callbackURL,
		ConfirmationURL: confirmationURL,
		StoreName:       storeName,
		UPIAddress:      upiAddress,
	}
}

//
// 💳 POST /api/payment/create/:productId
//
// Le montant est le cart_total fourni s'il y en a un, sinon le total du
// panier Redis s'il est non vide, sinon le prix du produit ciblé. Il est
// figé ici, jamais relu depuis le callback.
func (h *Handler) CreatePayment(c *gin.Context) {
	userID := c.GetString("user_id")
	ctx := c.Request.Context()

	pid, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}
	productID := gocql.UUID(pid)

	product, err := h.Products.Find(ctx, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	// Corps JSON ou formulaire, tous les champs optionnels
	var input struct {
		CartTotal   *float64 `json:"cart_total" form:"cart_total"`
		AddressID   string   `json:"address_id" form:"address_id"`
		WishlistIDs []string `json:"wishlist_ids" form:"wishlist_ids"`
	}
	_ = c.ShouldBind(&input)

	// Le total panier fourni prime sur le prix unitaire ; un total explicite
	// mais non positif est rejeté AVANT tout appel passerelle
	var amount float64
	if input.CartTotal != nil {
		if *input.CartTotal <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide"})
			return
		}
		amount = *input.CartTotal
	} else {
		if userID != "" {
			total, err := h.Cart.Total(ctx, userID)
			if err != nil {
				log.Printf("⚠️ Lecture panier de %s impossible: %v", userID, err)
			} else {
				amount = total
			}
		}
		if amount <= 0 {
			amount = product.Price
		}
	}
	if amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide"})
		return
	}

	// Adresse de livraison obligatoire : celle fournie, sinon celle par
	// défaut de l'acheteur — jamais celle d'un autre acheteur
	var addressID gocql.UUID
	if input.AddressID != "" {
		aid, err := uuid.Parse(input.AddressID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
			return
		}
		owns, err := h.Addresses.Owns(ctx, userID, gocql.UUID(aid))
		if err != nil {
			log.Printf("❌ Vérification adresse échouée: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}
		if !owns {
			c.JSON(http.StatusNotFound, gin.H{"error": "Adresse introuvable"})
			return
		}
		addressID = gocql.UUID(aid)
	} else {
		def, err := h.Addresses.DefaultFor(ctx, userID)
		if err != nil {
			log.Printf("❌ Résolution adresse par défaut échouée: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}
		if def == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse de livraison requise"})
			return
		}
		addressID = *def
	}

	var stash []gocql.UUID
	for _, raw := range input.WishlistIDs {
		wid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID wishlist invalide"})
			return
		}
		stash = append(stash, gocql.UUID(wid))
	}

	paise := int64(math.Round(amount * 100))
	receipt := "rcpt_" + gocql.TimeUUID().String()

	gatewayOrderID, err := h.Gateway.CreateOrder(ctx, paise, "INR", receipt)
	if err != nil {
		// Pas de ligne locale : la passerelle n'a rien ouvert (ou on ne
		// sait pas), l'acheteur retentera
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			log.Printf("❌ Passerelle a refusé la commande: %v", apiErr)
		} else {
			log.Printf("❌ Passerelle injoignable: %v", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Passerelle de paiement indisponible"})
		return
	}

	order, err := h.Store.Create(ctx, store.CreateOrderInput{
		UserID:         userID,
		Guest:          userID == "",
		ProductID:      &productID,
		Amount:         amount,
		AmountPaise:    paise,
		GatewayOrderID: gatewayOrderID,
		AddressID:      &addressID,
	})
	if err != nil {
		log.Printf("❌ Création commande locale échouée (passerelle %s): %v", gatewayOrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	// Les entrées wishlist fournies ne seront retirées que si le paiement
	// aboutit (chemin "acheter maintenant" qui contourne le panier)
	if userID != "" && len(stash) > 0 {
		if err := h.Wishlist.Stash(ctx, userID, stash); err != nil {
			log.Printf("⚠️ Stash wishlist impossible pour %s: %v", userID, err)
		}
	}

	resp := gin.H{
		"order_id":         order.ID.String(),
		"gateway_order_id": gatewayOrderID,
		"key_id":           h.Gateway.KeyID(),
		"amount":           amount,
		"amount_paise":     paise,
		"currency":         "INR",
		"name":             h.StoreName,
		"callback_url":     h.CallbackURL,
	}

	// 🎫 QR UPI en complément du formulaire passerelle
	if h.UPIAddress != "" {
		if qr, err := utils.GenerateUPIQR(h.UPIAddress, h.StoreName, amount, gatewayOrderID); err == nil {
			resp["upi_qr"] = qr
		} else {
			log.Printf("⚠️ Génération QR UPI échouée: %v", err)
		}
	}

	log.Printf("✅ Paiement initié: commande %s (passerelle %s, %d paise)", order.ID, gatewayOrderID, paise)
	c.JSON(http.StatusOK, resp)
}

// callbackParam lit un champ du callback, en query (GET) ou en form (POST)
func callbackParam(c *gin.Context, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.PostForm(name)
}

//
// 🔔 GET|POST /api/payment/callback
//
// Le payload est considéré hostile tant que la signature n'est pas vérifiée.
// Le montant n'est JAMAIS lu ici : il a été figé à la création. Quoi qu'il
// arrive, on redirige vers la page de confirmation — jamais de réponse
// d'erreur à la passerelle.
func (h *Handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	gatewayOrderID := callbackParam(c, "razorpay_order_id")
	paymentID := callbackParam(c, "razorpay_payment_id")
	signature := callbackParam(c, "razorpay_signature")

	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		log.Printf("⚠️ Callback incomplet (order=%q payment=%q)", gatewayOrderID, paymentID)
		h.redirectConfirmation(c, nil)
		return
	}

	order, err := h.Store.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		// Identifiant inconnu : on ne crée rien, on ne touche à rien
		log.Printf("⚠️ Callback pour commande passerelle inconnue %s: %v", gatewayOrderID, err)
		h.redirectConfirmation(c, nil)
		return
	}

	if order.PaymentStatus.IsTerminal() {
		// Rejeu : la première livraison a déjà tout fait
		h.redirectConfirmation(c, order)
		return
	}

	if !h.Gateway.VerifyPaymentSignature(gatewayOrderID, paymentID, signature) {
		log.Printf("❌ Signature invalide pour commande %s (passerelle %s)", order.ID, gatewayOrderID)
		if _, err := h.Store.MarkFailed(ctx, order.ID); err != nil {
			log.Printf("⚠️ Passage en failed impossible pour %s: %v", order.ID, err)
		}
		h.redirectConfirmation(c, order)
		return
	}

	paid, err := h.Store.MarkPaid(ctx, order.ID, paymentID, signature)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyPaid) {
			// Un callback concurrent a gagné : succès idempotent,
			// pas de seconde réconciliation
			h.redirectConfirmation(c, order)
			return
		}
		log.Printf("❌ Passage en paid impossible pour %s: %v", order.ID, err)
		h.redirectConfirmation(c, order)
		return
	}

	log.Printf("✅ Paiement confirmé: commande %s (payment %s)", paid.ID, paymentID)

	// Réconciliation synchrone ; un échec ici ne remet JAMAIS en cause
	// l'état payé
	h.reconcile(ctx, paid)

	if h.Notifier != nil {
		h.Notifier.Notify(paid)
	}

	h.redirectConfirmation(c, paid)
}

// redirectConfirmation renvoie toujours vers la page de confirmation ;
// l'order_id n'est ajouté que si la commande est identifiée
func (h *Handler) redirectConfirmation(c *gin.Context, order *models.Order) {
	url := h.ConfirmationURL
	if order != nil {
		url += "?order_id=" + order.ID.String()
	}
	c.Redirect(http.StatusFound, url)
}
