package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/himanshidesai31/kickera/internal/database"
	"github.com/himanshidesai31/kickera/internal/models"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetUserFromCache récupère un utilisateur depuis Redis ou ScyllaDB
func GetUserFromCache(userID string) (*models.User, error) {
	ctx := context.Background()
	key := "user:" + userID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}

	var (
		user models.User
		role string
	)
	err = session.Query(`SELECT email, name, role FROM users WHERE user_id = ?`,
		gocql.UUID(uid)).Scan(&user.Email, &user.Name, &role)
	if err != nil {
		return nil, err
	}
	user.ID = userID
	user.Role = models.RoleFromString(role)

	// 3. Mettre en cache
	if data, err := json.Marshal(user); err == nil {
		database.Redis.Set(ctx, key, data, UserCacheTTL)
	}

	return &user, nil
}

// GetProductFromCache récupère un produit depuis Redis ou ScyllaDB
func GetProductFromCache(productID gocql.UUID) (*models.Product, error) {
	ctx := context.Background()
	key := "product:" + productID.String()

	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var product models.Product
		if json.Unmarshal([]byte(data), &product) == nil {
			return &product, nil
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = session.Query(`
		SELECT product_id, name, description, price, stock, image_urls, tags, is_active
		FROM products WHERE product_id = ?`, productID).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.ImageURLs, &product.Tags, &product.IsActive)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		database.Redis.Set(ctx, key, data, ProductCacheTTL)
	}

	return &product, nil
}
