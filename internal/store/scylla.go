package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"github.com/himanshidesai31/kickera/internal/database"
	"github.com/himanshidesai31/kickera/internal/models"
)

// ScyllaStore persiste les commandes dans le keyspace orders.
// Trois tables (voir scripts/scylladb_init.cql) :
//   - orders            : ligne canonique, clé order_id
//   - orders_by_user    : vue dénormalisée triée par order_id (timeuuid) décroissant
//   - orders_by_gateway : gateway_order_id → order_id, pour le callback
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore {
	return &ScyllaStore{}
}

func (s *ScyllaStore) session() (*gocql.Session, error) {
	return database.GetOrdersSession()
}

func (s *ScyllaStore) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	session, err := s.session()
	if err != nil {
		return nil, err
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

	// gateway_order_id est unique et immuable : insertion conditionnelle
	applied, err := session.Query(`
		INSERT INTO orders_by_gateway (gateway_order_id, order_id)
		VALUES (?, ?) IF NOT EXISTS`,
		order.GatewayOrderID, order.ID).WithContext(ctx).ScanCAS(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("insertion orders_by_gateway: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: gateway_order_id déjà utilisé", ErrValidation)
	}

	if err := session.Query(`
		INSERT INTO orders (order_id, user_id, product_id, amount, amount_paise,
			payment_status, gateway_order_id, gateway_payment_id, gateway_signature,
			address_id, order_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.ProductID, order.Amount, order.AmountPaise,
		string(order.PaymentStatus), order.GatewayOrderID, "", "",
		order.AddressID, order.OrderStatus, order.CreatedAt, order.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("insertion orders: %w", err)
	}

	if order.UserID != "" {
		if err := session.Query(`
			INSERT INTO orders_by_user (user_id, order_id, payment_status, amount, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			order.UserID, order.ID, string(order.PaymentStatus), order.Amount, order.CreatedAt,
		).WithContext(ctx).Exec(); err != nil {
			// la ligne canonique existe, on log sans échouer la création
			log.Printf("⚠️ Insertion orders_by_user échouée pour %s: %v", order.ID, err)
		}
	}

	return order, nil
}

func (s *ScyllaStore) MarkPaid(ctx context.Context, orderID gocql.UUID, paymentID, signature string) (*models.Order, error) {
	order, err := s.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.PaymentStatus {
	case models.PaymentPaid:
		return order, ErrAlreadyPaid
	case models.PaymentFailed:
		return order, ErrInvalidState
	}

	session, err := s.session()
	if err != nil {
		return nil, err
	}

	// Transaction légère : la transition pending → paid ne s'applique que si
	// la ligne est encore pending. Deux callbacks concurrents ne peuvent pas
	// gagner tous les deux.
	now := time.Now().UTC()
	var current string
	applied, err := session.Query(`
		UPDATE orders
		SET payment_status = ?, gateway_payment_id = ?, gateway_signature = ?, updated_at = ?
		WHERE order_id = ?
		IF payment_status = ?`,
		string(models.PaymentPaid), paymentID, signature, now,
		orderID, string(models.PaymentPending),
	).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return nil, fmt.Errorf("transition paid: %w", err)
	}

	if !applied {
		// quelqu'un d'autre a gagné la course : relire l'état réel
		switch models.PaymentStatus(current) {
		case models.PaymentPaid:
			paid, ferr := s.FindByID(ctx, orderID)
			if ferr != nil {
				return nil, ferr
			}
			return paid, ErrAlreadyPaid
		default:
			return nil, ErrInvalidState
		}
	}

	s.syncUserStatus(ctx, session, order.UserID, orderID, models.PaymentPaid)

	order.PaymentStatus = models.PaymentPaid
	order.GatewayPaymentID = paymentID
	order.GatewaySignature = signature
	order.UpdatedAt = now
	return order, nil
}

func (s *ScyllaStore) MarkFailed(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	order, err := s.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.PaymentStatus {
	case models.PaymentPaid:
		return order, ErrAlreadyPaid
	case models.PaymentFailed:
		return order, ErrInvalidState
	}

	session, err := s.session()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var current string
	applied, err := session.Query(`
		UPDATE orders
		SET payment_status = ?, updated_at = ?
		WHERE order_id = ?
		IF payment_status = ?`,
		string(models.PaymentFailed), now, orderID, string(models.PaymentPending),
	).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return nil, fmt.Errorf("transition failed: %w", err)
	}

	if !applied {
		if models.PaymentStatus(current) == models.PaymentPaid {
			return nil, ErrAlreadyPaid
		}
		return nil, ErrInvalidState
	}

	s.syncUserStatus(ctx, session, order.UserID, orderID, models.PaymentFailed)

	order.PaymentStatus = models.PaymentFailed
	order.UpdatedAt = now
	return order, nil
}

// syncUserStatus répercute l'état sur la vue orders_by_user (meilleur effort)
func (s *ScyllaStore) syncUserStatus(ctx context.Context, session *gocql.Session, userID string, orderID gocql.UUID, status models.PaymentStatus) {
	if userID == "" {
		return
	}
	if err := session.Query(`
		UPDATE orders_by_user SET payment_status = ? WHERE user_id = ? AND order_id = ?`,
		string(status), userID, orderID).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Mise à jour orders_by_user échouée pour %s: %v", orderID, err)
	}
}

func (s *ScyllaStore) FindByID(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	session, err := s.session()
	if err != nil {
		return nil, err
	}

	var (
		order     models.Order
		status    string
		productID gocql.UUID
		addressID gocql.UUID
	)
	err = session.Query(`
		SELECT order_id, user_id, product_id, amount, amount_paise, payment_status,
		       gateway_order_id, gateway_payment_id, gateway_signature,
		       address_id, order_status, created_at, updated_at
		FROM orders WHERE order_id = ?`, orderID).WithContext(ctx).Scan(
		&order.ID, &order.UserID, &productID, &order.Amount, &order.AmountPaise, &status,
		&order.GatewayOrderID, &order.GatewayPaymentID, &order.GatewaySignature,
		&addressID, &order.OrderStatus, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	order.PaymentStatus = models.PaymentStatus(status)
	if productID != (gocql.UUID{}) {
		order.ProductID = &productID
	}
	if addressID != (gocql.UUID{}) {
		order.AddressID = &addressID
	}
	return &order, nil
}

func (s *ScyllaStore) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	session, err := s.session()
	if err != nil {
		return nil, err
	}

	var orderID gocql.UUID
	err = session.Query(`
		SELECT order_id FROM orders_by_gateway WHERE gateway_order_id = ?`,
		gatewayOrderID).WithContext(ctx).Scan(&orderID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.FindByID(ctx, orderID)
}

func (s *ScyllaStore) FindLatestPaidForBuyer(ctx context.Context, userID string) (*models.Order, error) {
	if userID == "" {
		return nil, ErrNotFound
	}

	session, err := s.session()
	if err != nil {
		return nil, err
	}

	// orders_by_user est trié par order_id (timeuuid) décroissant : la
	// première ligne payée est la plus récente
	iter := session.Query(`
		SELECT order_id, payment_status FROM orders_by_user WHERE user_id = ?`,
		userID).WithContext(ctx).Iter()

	var (
		orderID gocql.UUID
		status  string
	)
	for iter.Scan(&orderID, &status) {
		if models.PaymentStatus(status) == models.PaymentPaid {
			if err := iter.Close(); err != nil {
				return nil, err
			}
			return s.FindByID(ctx, orderID)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return nil, ErrNotFound
}

func (s *ScyllaStore) ListForBuyer(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, nil
	}

	session, err := s.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT order_id, payment_status, amount, created_at
		FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	var (
		orders  []models.Order
		orderID gocql.UUID
		status  string
		amount  float64
		created time.Time
	)
	for iter.Scan(&orderID, &status, &amount, &created) {
		orders = append(orders, models.Order{
			ID:            orderID,
			UserID:        userID,
			PaymentStatus: models.PaymentStatus(status),
			Amount:        amount,
			CreatedAt:     created,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return orders, nil
}
