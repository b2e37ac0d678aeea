package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/himanshidesai31/kickera/internal/cache"
	"github.com/himanshidesai31/kickera/internal/database"
	"github.com/himanshidesai31/kickera/internal/models"
)

const wishlistStashTTL = 1 * time.Hour

func wishlistStashKey(userID string) string {
	return "stash:wishlist:" + userID
}

//
// 💝 GET /api/wishlist
//
func GetWishlist(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	iter := session.Query(`SELECT product_id, added_at FROM wishlist WHERE user_id = ?`, userID).Iter()

	items := []models.Product{}
	var (
		productID gocql.UUID
		addedAt   time.Time
	)
	for iter.Scan(&productID, &addedAt) {
		product, err := cache.GetProductFromCache(productID)
		if err != nil {
			continue // produit supprimé entre-temps
		}
		items = append(items, *product)
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur lecture wishlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, models.Wishlist{UserID: userID, Items: items})
}

//
// ➕ POST /api/wishlist/add
//
func AddToWishlist(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	pid, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}
	productID := gocql.UUID(pid)

	if _, err := cache.GetProductFromCache(productID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if err := session.Query(`INSERT INTO wishlist (user_id, product_id, added_at) VALUES (?, ?, ?)`,
		userID, productID, time.Now()).Exec(); err != nil {
		log.Printf("❌ Erreur ajout wishlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté à la wishlist"})
}

//
// ➖ DELETE /api/wishlist/:productId
//
func RemoveFromWishlist(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	pid, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	store := NewWishlistStore()
	if err := store.Remove(context.Background(), userID, gocql.UUID(pid)); err != nil {
		log.Printf("❌ Erreur suppression wishlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit retiré de la wishlist"})
}

// WishlistStore porte les opérations wishlist consommées par le flux de
// paiement : au checkout, les entrées achetées sont mises de côté (stash)
// dans Redis, puis retirées de la wishlist seulement une fois le paiement
// confirmé.
type WishlistStore struct{}

func NewWishlistStore() *WishlistStore {
	return &WishlistStore{}
}

// Stash mémorise les entrées à retirer de la wishlist si le paiement
// aboutit. TTL court : un paiement abandonné ne doit pas laisser de trace.
func (w *WishlistStore) Stash(ctx context.Context, userID string, productIDs []gocql.UUID) error {
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		ids = append(ids, id.String())
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return database.Redis.Set(ctx, wishlistStashKey(userID), data, wishlistStashTTL).Err()
}

// PopStash récupère et consomme les entrées mises de côté au checkout.
// Slice vide si rien n'était en attente.
func (w *WishlistStore) PopStash(ctx context.Context, userID string) ([]gocql.UUID, error) {
	key := wishlistStashKey(userID)

	data, err := database.Redis.Get(ctx, key).Result()
	if err != nil || data == "" {
		return nil, nil
	}
	database.Redis.Del(ctx, key)

	var raw []string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, nil // stash corrompu, déjà purgé
	}

	ids := make([]gocql.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := gocql.ParseUUID(r)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Remove retire un produit de la wishlist ScyllaDB. Idempotent.
func (w *WishlistStore) Remove(ctx context.Context, userID string, productID gocql.UUID) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM wishlist WHERE user_id = ? AND product_id = ?`,
		userID, productID).WithContext(ctx).Exec()
}
