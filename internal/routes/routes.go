package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/himanshidesai31/kickera/internal/config"
	"github.com/himanshidesai31/kickera/internal/gateway"
	pa "github.com/himanshidesai31/kickera/internal/handlers/payement"
	pr "github.com/himanshidesai31/kickera/internal/handlers/product"
	us "github.com/himanshidesai31/kickera/internal/handlers/user"
	"github.com/himanshidesai31/kickera/internal/middleware"
	"github.com/himanshidesai31/kickera/internal/models"
	"github.com/himanshidesai31/kickera/internal/store"
)

// RegisterRoutes câble toutes les routes de l'API. Le client passerelle est
// construit dans main et injecté ici.
func RegisterRoutes(r *gin.Engine, gw *gateway.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", config.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	orders := store.NewScyllaStore()

	payments := pa.NewHandler(
		orders,
		gw,
		us.NewRedisCart(),
		us.NewWishlistStore(),
		pr.NewFinder(),
		us.NewAddressStore(),
		pa.NewEmailNotifier(config.StoreName()),
		config.CallbackURL(),
		config.ConfirmationURL(),
		config.StoreName(),
		config.UPIAddress(),
	)

	api := r.Group("/api")

	// 🔐 Authentification
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.AuthRateLimit("register", middleware.RegisterMaxAttempts, middleware.RegisterCooldown), us.Register)
		auth.POST("/login", middleware.AuthRateLimit("login", middleware.LoginMaxAttempts, middleware.LoginCooldown), us.Login)
		auth.GET("/me", middleware.AuthRequired(), us.Me)
	}

	// 📦 Produits (lecture publique, écriture vendeur)
	products := api.Group("/products")
	{
		products.GET("", pr.ListProducts)
		products.GET("/:productId", pr.GetProduct)
		products.POST("", middleware.AuthRequired(), middleware.RequireRole(models.RoleVendor), pr.CreateProduct)
	}

	// 🛒 Panier
	cart := api.Group("/cart", middleware.AuthRequired())
	{
		cart.GET("", us.GetCart)
		cart.POST("/add", us.AddToCart)
		cart.DELETE("/clear", us.ClearCart)
		cart.DELETE("/:productId", us.RemoveFromCart)
	}

	// 💝 Wishlist
	wishlist := api.Group("/wishlist", middleware.AuthRequired())
	{
		wishlist.GET("", us.GetWishlist)
		wishlist.POST("/add", us.AddToWishlist)
		wishlist.DELETE("/:productId", us.RemoveFromWishlist)
	}

	// 🏠 Adresses
	addresses := api.Group("/addresses", middleware.AuthRequired())
	{
		addresses.GET("", us.GetAddresses)
		addresses.POST("", us.AddAddress)
		addresses.DELETE("/:addressId", us.DeleteAddress)
	}

	// 📋 Commandes
	api.GET("/orders", middleware.AuthRequired(), us.GetMyOrders(orders))

	// 💳 Paiement
	payment := api.Group("/payment")
	{
		payment.POST("/create/:productId", middleware.AuthRequired(), payments.CreatePayment)

		// Le callback vient de la passerelle, pas du navigateur
		// authentifié : public, GET et POST
		payment.GET("/callback", payments.Callback)
		payment.POST("/callback", payments.Callback)

		// order_id explicite : public ; chemin de secours : acheteur connecté
		payment.GET("/confirmation", payments.Confirmation)
		payment.GET("/confirmation/me", middleware.AuthRequired(), payments.Confirmation)
	}
}
