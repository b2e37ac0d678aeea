package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// --- Passerelle de paiement ---

func GatewayKeyID() string {
	return os.Getenv("RAZORPAY_KEY_ID")
}

func GatewayKeySecret() string {
	return os.Getenv("RAZORPAY_KEY_SECRET")
}

// GatewayBaseURL vide = API de production (le client applique le défaut)
func GatewayBaseURL() string {
	return os.Getenv("RAZORPAY_BASE_URL")
}

// --- URLs publiques ---

func BaseURL() string {
	if url := os.Getenv("BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// CallbackURL est l'endpoint que la passerelle rappelle après paiement
func CallbackURL() string {
	return BaseURL() + "/api/payment/callback"
}

// ConfirmationURL est la page de confirmation côté frontend
func ConfirmationURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url + "/confirmation"
	}
	return BaseURL() + "/confirmation"
}

// --- Boutique ---

func StoreName() string {
	if name := os.Getenv("STORE_NAME"); name != "" {
		return name
	}
	return "Kickera"
}

// UPIAddress est la VPA affichée dans le QR de paiement
func UPIAddress() string {
	return os.Getenv("STORE_UPI_ADDRESS")
}
