package models

import (
	"time"

	"github.com/gocql/gocql"
)

// PaymentStatus est l'état de paiement d'une commande (enum tri-état).
// Les états "paid" et "failed" sont terminaux : seule une future procédure
// de remboursement (hors de ce module) pourra faire évoluer "paid".
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Statut de livraison, indépendant de l'état de paiement
const (
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
)

type Order struct {
	ID               gocql.UUID    `json:"id" db:"order_id"`
	UserID           string        `json:"user_id,omitempty" db:"user_id"` // vide = commande invité
	ProductID        *gocql.UUID   `json:"product_id,omitempty" db:"product_id"`
	Amount           float64       `json:"amount" db:"amount"`             // montant en roupies, pour affichage
	AmountPaise      int64         `json:"amount_paise" db:"amount_paise"` // montant réellement débité (unité mineure)
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	GatewayOrderID   string        `json:"gateway_order_id" db:"gateway_order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`
	GatewaySignature string        `json:"-" db:"gateway_signature"`
	AddressID        *gocql.UUID   `json:"address_id,omitempty" db:"address_id"`
	OrderStatus      string        `json:"order_status" db:"order_status"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// IsTerminal indique si l'état de paiement ne peut plus évoluer
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}
