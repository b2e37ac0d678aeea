package product

import (
	"context"
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

//
// 📦 GET /api/products
//
func ListProducts(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	iter := session.Query(`
		SELECT product_id, name, description, price, stock, vendor_id, image_urls, tags, is_active
		FROM products`).Iter()

	products := []models.Product{}
	var (
		p        models.Product
		vendorID gocql.UUID
	)
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&vendorID, &p.ImageURLs, &p.Tags, &p.IsActive) {
		if !p.IsActive {
			continue
		}
		if vendorID != (gocql.UUID{}) {
			v := vendorID
			p.VendorID = &v
		} else {
			p.VendorID = nil
		}
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

//
// 🔍 GET /api/products/:productId
//
func GetProduct(c *gin.Context) {
	pid, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	product, err := cache.GetProductFromCache(gocql.UUID(pid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, product)
}

//
// ➕ POST /api/products (vendeur)
//
func CreateProduct(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Stock       int      `json:"stock"`
		ImageURLs   []string `json:"image_urls"`
		Tags        []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Name == "" || input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom et prix requis"})
		return
	}

	vendorID, err := gocql.ParseUUID(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	productID := gocql.TimeUUID()
	now := time.Now()
	if err := session.Query(`
		INSERT INTO products (product_id, name, description, price, stock, vendor_id, image_urls, tags, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		productID, input.Name, input.Description, input.Price, input.Stock,
		vendorID, input.ImageURLs, input.Tags, true, now).Exec(); err != nil {
		log.Printf("❌ Erreur insertion produit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	log.Printf("✅ Produit créé: %s (%s)", input.Name, productID)
	c.JSON(http.StatusCreated, gin.H{"product_id": productID.String()})
}

// Finder résout un produit par ID pour le flux de paiement (cache Redis
// puis ScyllaDB).
type Finder struct{}

func NewFinder() *Finder {
	return &Finder{}
}

func (f *Finder) Find(ctx context.Context, productID gocql.UUID) (*models.Product, error) {
	return cache.GetProductFromCache(productID)
}
