package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature vérifie qu'un triplet de callback provient bien de la
// passerelle : HMAC-SHA256 sur "orderID|paymentID" avec le secret partagé,
// comparé en temps constant. Retourne false sur toute entrée malformée,
// jamais d'erreur — l'appelant traite false comme un échec de vérification.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))

	return hmac.Equal(given, mac.Sum(nil))
}
