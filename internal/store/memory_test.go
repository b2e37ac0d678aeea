package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshidesai31/kickera/internal/models"
)

func newPending(t *testing.T, m *MemoryStore, userID, gwID string) *models.Order {
	t.Helper()
	order, err := m.Create(context.Background(), CreateOrderInput{
		UserID:         userID,
		Amount:         499.00,
		AmountPaise:    49900,
		GatewayOrderID: gwID,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentPending, order.PaymentStatus)
	return order
}

func TestCreateValidation(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	// montant nul ou négatif
	_, err := m.Create(ctx, CreateOrderInput{UserID: "u1", Amount: 0, AmountPaise: 0, GatewayOrderID: "gw1"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = m.Create(ctx, CreateOrderInput{UserID: "u1", Amount: -5, AmountPaise: -500, GatewayOrderID: "gw1"})
	assert.ErrorIs(t, err, ErrValidation)

	// identifiant passerelle manquant
	_, err = m.Create(ctx, CreateOrderInput{UserID: "u1", Amount: 10, AmountPaise: 1000})
	assert.ErrorIs(t, err, ErrValidation)

	// acheteur manquant hors parcours invité
	_, err = m.Create(ctx, CreateOrderInput{Amount: 10, AmountPaise: 1000, GatewayOrderID: "gw1"})
	assert.ErrorIs(t, err, ErrValidation)

	// parcours invité explicite accepté
	_, err = m.Create(ctx, CreateOrderInput{Guest: true, Amount: 10, AmountPaise: 1000, GatewayOrderID: "gw1"})
	assert.NoError(t, err)

	// gateway_order_id unique
	_, err = m.Create(ctx, CreateOrderInput{UserID: "u1", Amount: 10, AmountPaise: 1000, GatewayOrderID: "gw1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMarkPaidTransitions(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	order := newPending(t, m, "u1", "order_gw_1")

	paid, err := m.MarkPaid(ctx, order.ID, "pay_1", "sig_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, "pay_1", paid.GatewayPaymentID)
	assert.Equal(t, "sig_1", paid.GatewaySignature)

	// rejouer le même callback : succès idempotent, pas d'écrasement
	again, err := m.MarkPaid(ctx, order.ID, "pay_autre", "sig_autre")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, "pay_1", again.GatewayPaymentID)

	// commande inconnue
	_, err = m.MarkPaid(ctx, gocql.TimeUUID(), "pay_x", "sig_x")
	assert.ErrorIs(t, err, ErrNotFound)

	// le montant n'a pas bougé
	after, err := m.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 499.00, after.Amount)
	assert.Equal(t, int64(49900), after.AmountPaise)
}

func TestMarkPaidFromFailed(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	order := newPending(t, m, "u1", "order_gw_1")

	_, err := m.MarkFailed(ctx, order.ID)
	require.NoError(t, err)

	// failed est terminal : pas de résurrection en paid
	_, err = m.MarkPaid(ctx, order.ID, "pay_1", "sig_1")
	assert.ErrorIs(t, err, ErrInvalidState)

	after, _ := m.FindByID(ctx, order.ID)
	assert.Equal(t, models.PaymentFailed, after.PaymentStatus)
}

func TestMarkFailedTransitions(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	order := newPending(t, m, "u1", "order_gw_1")

	failed, err := m.MarkFailed(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.PaymentStatus)

	// double échec : état déjà terminal
	_, err = m.MarkFailed(ctx, order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// échec après paiement : refusé aussi
	paidOrder := newPending(t, m, "u1", "order_gw_2")
	_, err = m.MarkPaid(ctx, paidOrder.ID, "pay_1", "sig_1")
	require.NoError(t, err)
	_, err = m.MarkFailed(ctx, paidOrder.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestFindByGatewayOrderID(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	order := newPending(t, m, "u1", "order_gw_1")

	found, err := m.FindByGatewayOrderID(ctx, "order_gw_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = m.FindByGatewayOrderID(ctx, "order_inconnu")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindLatestPaidForBuyer(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	first := newPending(t, m, "u1", "gw_1")
	second := newPending(t, m, "u1", "gw_2")
	third := newPending(t, m, "u1", "gw_3")

	// aucune payée pour l'instant
	_, err := m.FindLatestPaidForBuyer(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.MarkPaid(ctx, first.ID, "pay_1", "sig")
	require.NoError(t, err)
	_, err = m.MarkPaid(ctx, second.ID, "pay_2", "sig")
	require.NoError(t, err)
	// la troisième reste pending : elle ne doit jamais sortir
	_ = third

	latest, err := m.FindLatestPaidForBuyer(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	// autre acheteur : rien
	_, err = m.FindLatestPaidForBuyer(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForBuyer(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	a := newPending(t, m, "u1", "gw_1")
	b := newPending(t, m, "u1", "gw_2")
	newPending(t, m, "u2", "gw_3")

	orders, err := m.ListForBuyer(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	// tri création décroissante
	assert.Equal(t, b.ID, orders[0].ID)
	assert.Equal(t, a.ID, orders[1].ID)
}

// Deux callbacks concurrents : exactement un MarkPaid gagne,
// tous les autres observent ErrAlreadyPaid.
func TestMarkPaidConcurrent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	order := newPending(t, m, "u1", "order_gw_1")

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		replays int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.MarkPaid(ctx, order.ID, "pay_1", "sig_1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyPaid):
				replays++
			default:
				t.Errorf("erreur inattendue: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, replays)

	after, err := m.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, after.PaymentStatus)
}
