package store

import (
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"github.com/himanshidesai31/kickera/internal/models"
)

// MemoryStore est l'implémentation en mémoire d'OrderStore, utilisée par les
// tests. La transition conditionnelle est reproduite sous mutex : mêmes
// garanties observables que la transaction légère ScyllaDB.
type MemoryStore struct {
	mu        sync.Mutex
	orders    map[gocql.UUID]*models.Order
	byGateway map[string]gocql.UUID
	byUser    map[string][]gocql.UUID // ordre d'insertion = ordre de création
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[gocql.UUID]*models.Order),
		byGateway: make(map[string]gocql.UUID),
		byUser:    make(map[string][]gocql.UUID),
	}
}

func (m *MemoryStore) Create(_ context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byGateway[in.GatewayOrderID]; exists {
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:             gocql.TimeUUID(),
		UserID:         in.UserID,
		ProductID:      in.ProductID,
		Amount:         in.Amount,
		AmountPaise:    in.AmountPaise,
		PaymentStatus:  models.PaymentPending,
		GatewayOrderID: in.GatewayOrderID,
		AddressID:      in.AddressID,
		OrderStatus:    models.OrderProcessing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.orders[order.ID] = order
	m.byGateway[order.GatewayOrderID] = order.ID
	if order.UserID != "" {
		m.byUser[order.UserID] = append(m.byUser[order.UserID], order.ID)
	}

	cp := *order
	return &cp, nil
}

func (m *MemoryStore) MarkPaid(_ context.Context, orderID gocql.UUID, paymentID, signature string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}

	switch order.PaymentStatus {
	case models.PaymentPaid:
		cp := *order
		return &cp, ErrAlreadyPaid
	case models.PaymentFailed:
		cp := *order
		return &cp, ErrInvalidState
	}

	order.PaymentStatus = models.PaymentPaid
	order.GatewayPaymentID = paymentID
	order.GatewaySignature = signature
	order.UpdatedAt = time.Now().UTC()

	cp := *order
	return &cp, nil
}

func (m *MemoryStore) MarkFailed(_ context.Context, orderID gocql.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}

	switch order.PaymentStatus {
	case models.PaymentPaid:
		cp := *order
		return &cp, ErrAlreadyPaid
	case models.PaymentFailed:
		cp := *order
		return &cp, ErrInvalidState
	}

	order.PaymentStatus = models.PaymentFailed
	order.UpdatedAt = time.Now().UTC()

	cp := *order
	return &cp, nil
}

func (m *MemoryStore) FindByID(_ context.Context, orderID gocql.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *MemoryStore) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byGateway[gatewayOrderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.orders[id]
	return &cp, nil
}

func (m *MemoryStore) FindLatestPaidForBuyer(_ context.Context, userID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.byUser[userID]
	for i := len(ids) - 1; i >= 0; i-- {
		if order := m.orders[ids[i]]; order.PaymentStatus == models.PaymentPaid {
			cp := *order
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListForBuyer(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.byUser[userID]
	orders := make([]models.Order, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		orders = append(orders, *m.orders[ids[i]])
	}
	return orders, nil
}
