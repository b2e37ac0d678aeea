package store

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"github.com/himanshidesai31/kickera/internal/models"
)

var (
	// ErrNotFound : commande (ou identifiant passerelle) inconnue
	ErrNotFound = errors.New("commande introuvable")
	// ErrAlreadyPaid : la commande est déjà payée. Pour l'appelant du
	// callback c'est un succès idempotent, pas une erreur utilisateur.
	ErrAlreadyPaid = errors.New("commande déjà payée")
	// ErrInvalidState : transition tentée depuis un état terminal
	ErrInvalidState = errors.New("transition d'état invalide")
	// ErrValidation : montant ou identité invalide, rejeté avant toute écriture
	ErrValidation = errors.New("données de commande invalides")
)

// CreateOrderInput décrit une intention d'achat à enregistrer en "pending".
// Le montant est figé ici et n'est jamais recalculé ensuite.
type CreateOrderInput struct {
	UserID         string // vide uniquement pour une commande invité
	Guest          bool
	ProductID      *gocql.UUID
	Amount         float64 // roupies, pour affichage
	AmountPaise    int64   // valeur réellement débitée
	GatewayOrderID string
	AddressID      *gocql.UUID
}

// OrderStore est la source de vérité "cette commande est-elle payée".
// Les commandes ne sont jamais supprimées : l'audit et le reporting en dépendent.
type OrderStore interface {
	// Create insère une commande en "pending"
	Create(ctx context.Context, in CreateOrderInput) (*models.Order, error)

	// MarkPaid fait passer pending → paid et fixe payment_id/signature,
	// une seule fois. Écriture conditionnelle : sous deux callbacks
	// concurrents, exactement un gagne, l'autre reçoit ErrAlreadyPaid.
	MarkPaid(ctx context.Context, orderID gocql.UUID, paymentID, signature string) (*models.Order, error)

	// MarkFailed fait passer pending → failed
	MarkFailed(ctx context.Context, orderID gocql.UUID) (*models.Order, error)

	FindByID(ctx context.Context, orderID gocql.UUID) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)

	// FindLatestPaidForBuyer retourne la dernière commande payée de
	// l'acheteur (tri création décroissante). Chemin de secours UX
	// uniquement : le callback transporte toujours l'order_id explicite.
	FindLatestPaidForBuyer(ctx context.Context, userID string) (*models.Order, error)

	// ListForBuyer retourne l'historique de commandes de l'acheteur
	ListForBuyer(ctx context.Context, userID string) ([]models.Order, error)
}

// validateCreate applique les invariants communs aux implémentations
func validateCreate(in CreateOrderInput) error {
	if in.Amount <= 0 || in.AmountPaise <= 0 {
		return ErrValidation
	}
	if in.GatewayOrderID == "" {
		return ErrValidation
	}
	if in.UserID == "" && !in.Guest {
		return ErrValidation
	}
	return nil
}
