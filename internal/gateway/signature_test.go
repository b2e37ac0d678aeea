package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Vecteurs calculés hors bande : hex(HMAC-SHA256(secret, "orderID|paymentID"))
func TestVerifySignature(t *testing.T) {
	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		secret    string
		want      bool
	}{
		{
			name:      "signature valide",
			orderID:   "order_gw_1",
			paymentID: "pay_1",
			signature: "3dd847205988fe025e6e44889043af502036dd809ab614df2263cefa9cc068ab",
			secret:    "test_secret",
			want:      true,
		},
		{
			name:      "signature valide, autre secret",
			orderID:   "order_MkXy42",
			paymentID: "pay_LmNo77",
			signature: "ec429430dfe4a5b2137856a9d54f55be8e9dbb0e59e3825606e6331640596c9c",
			secret:    "clef_integration",
			want:      true,
		},
		{
			name:      "signature d'un autre paiement",
			orderID:   "order_gw_1",
			paymentID: "pay_1",
			signature: "d92fdfbdc03baa96fa76cf003c8c86c4f92692cb86a13ed8940af00875bff29e", // signe pay_2
			secret:    "test_secret",
			want:      false,
		},
		{
			name:      "mauvais secret",
			orderID:   "order_gw_1",
			paymentID: "pay_1",
			signature: "3dd847205988fe025e6e44889043af502036dd809ab614df2263cefa9cc068ab",
			secret:    "autre_secret",
			want:      false,
		},
		{
			name:      "signature non hexadécimale",
			orderID:   "order_gw_1",
			paymentID: "pay_1",
			signature: "zz-pas-du-hex",
			secret:    "test_secret",
			want:      false,
		},
		{
			name:      "champs vides",
			orderID:   "",
			paymentID: "",
			signature: "",
			secret:    "test_secret",
			want:      false,
		},
		{
			name:      "signature tronquée",
			orderID:   "order_gw_1",
			paymentID: "pay_1",
			signature: "3dd84720",
			secret:    "test_secret",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.orderID, tt.paymentID, tt.signature, tt.secret))
		})
	}
}

// La fonction doit accepter toute signature qu'elle-même aurait produite
func TestVerifySignatureRoundTrip(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret_quelconque"))
	mac.Write([]byte("order_abc|pay_xyz"))
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature("order_abc", "pay_xyz", sig, "secret_quelconque"))
	assert.False(t, VerifySignature("order_abc", "pay_autre", sig, "secret_quelconque"))
}
