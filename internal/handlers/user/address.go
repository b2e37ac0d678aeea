package user

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/himanshidesai31/kickera/internal/database"
	"github.com/himanshidesai31/kickera/internal/models"
)

//
// 🏠 GET /api/addresses
//
func GetAddresses(c *gin.Context) {
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

	iter := session.Query(`SELECT address_id, line1, city, state, pincode, is_default
		FROM addresses WHERE user_id = ?`, userID).Iter()

	addresses := []models.Address{}
	var addr models.Address
	for iter.Scan(&addr.ID, &addr.Line1, &addr.City, &addr.State, &addr.Pincode, &addr.IsDefault) {
		addr.UserID = userID
		addresses = append(addresses, addr)
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur lecture adresses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

//
// ➕ POST /api/addresses
//
func AddAddress(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Line1     string `json:"line1"`
		City      string `json:"city"`
		State     string `json:"state"`
		Pincode   string `json:"pincode"`
		IsDefault bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Line1 == "" || input.City == "" || input.Pincode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse incomplète"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	addressID := gocql.TimeUUID()
	if err := session.Query(`INSERT INTO addresses (user_id, address_id, line1, city, state, pincode, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, addressID, input.Line1, input.City, input.State, input.Pincode, input.IsDefault).Exec(); err != nil {
		log.Printf("❌ Erreur insertion adresse: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusCreated, models.Address{
		ID:        addressID,
		UserID:    userID,
		Line1:     input.Line1,
		City:      input.City,
		State:     input.State,
		Pincode:   input.Pincode,
		IsDefault: input.IsDefault,
	})
}

//
// ❌ DELETE /api/addresses/:addressId
//
func DeleteAddress(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	aid, err := uuid.Parse(c.Param("addressId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if err := session.Query(`DELETE FROM addresses WHERE user_id = ? AND address_id = ?`,
		userID, gocql.UUID(aid)).Exec(); err != nil {
		log.Printf("❌ Erreur suppression adresse: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Adresse supprimée"})
}

// AddressStore résout l'adresse de livraison au moment du checkout : une
// commande ne référence jamais l'adresse d'un autre acheteur, et l'adresse
// par défaut sert de repli quand le client n'en précise pas.
type AddressStore struct{}

func NewAddressStore() *AddressStore {
	return &AddressStore{}
}

// Owns retourne vrai si l'adresse appartient à l'acheteur
func (a *AddressStore) Owns(ctx context.Context, userID string, addressID gocql.UUID) (bool, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return false, err
	}

	var found gocql.UUID
	err = session.Query(`SELECT address_id FROM addresses WHERE user_id = ? AND address_id = ?`,
		userID, addressID).WithContext(ctx).Scan(&found)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DefaultFor retourne l'adresse par défaut de l'acheteur, ou sa première
// adresse à défaut, ou nil s'il n'en a aucune
func (a *AddressStore) DefaultFor(ctx context.Context, userID string) (*gocql.UUID, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT address_id, is_default FROM addresses WHERE user_id = ?`,
		userID).WithContext(ctx).Iter()

	var (
		addressID gocql.UUID
		isDefault bool
		first     *gocql.UUID
	)
	for iter.Scan(&addressID, &isDefault) {
		id := addressID
		if isDefault {
			if err := iter.Close(); err != nil {
				return nil, err
			}
			return &id, nil
		}
		if first == nil {
			first = &id
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return first, nil
}
