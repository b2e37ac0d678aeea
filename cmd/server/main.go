package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/himanshidesai31/kickera/internal/config"
	"github.com/himanshidesai31/kickera/internal/database"
	"github.com/himanshidesai31/kickera/internal/gateway"
	"github.com/himanshidesai31/kickera/internal/routes"
)

func main() {
	config.Load()

	if config.GatewayKeyID() == "" || config.GatewayKeySecret() == "" {
		log.Fatal("❌ Impossible d'initialiser Razorpay : clés manquantes")
	}
	gw := gateway.NewClient(config.GatewayKeyID(), config.GatewayKeySecret(), config.GatewayBaseURL())
	log.Println("✅ Passerelle Razorpay initialisée")

	database.ConnectDatabases()

	// ✅ Initialiser les prepared statements pour améliorer les performances
	database.InitPreparedStatements()

	// ✅ Pré-chauffer le cache Redis
	warmupRedisCache()

	r := gin.Default()
	routes.RegisterRoutes(r, gw)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Kickera lancé sur le port", port)
	r.Run(":" + port)
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	// Faire un ping pour établir la connexion
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
