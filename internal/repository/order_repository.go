package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parfumerie/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrConcurrentModification is reported when a conditional status
	// update matched the order but not its expected current status.
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// OrderRepository defines the interface for order data access.
// Status updates are compare-and-swap writes: the store is the only
// serialization point for concurrent transitions on the same order.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByToken(ctx context.Context, id uuid.UUID, accessToken string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.FulfillmentStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) error
	SetPaymentMethod(ctx context.Context, id uuid.UUID, methodID int64) error
	ListByShipper(ctx context.Context, shipperID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	o.id, o.order_number, o.user_id, o.shipper_id,
	o.customer_name, o.customer_email, o.customer_phone, o.shipping_address,
	o.status, o.payment_status, o.payment_method_id, pm.name,
	o.subtotal, o.discount, o.shipping_fee, o.total,
	o.access_token, o.created_at, o.updated_at
`

// Create inserts the order and its line-item snapshots in one
// transaction. The order number comes from the store's sequence so it
// is monotonically increasing across orders.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			id, user_id, shipper_id, customer_name, customer_email, customer_phone,
			shipping_address, status, payment_status, payment_method_id,
			subtotal, discount, shipping_fee, total, access_token, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING order_number
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.ShipperID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ShippingAddress,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethodID,
		order.Subtotal,
		order.Discount,
		order.ShippingFee,
		order.Total,
		order.AccessToken,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.Number)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_name, variant_name, image_url, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(
			ctx,
			itemQuery,
			item.OrderID,
			item.ProductName,
			item.VariantName,
			item.ImageURL,
			item.UnitPrice,
			item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its line items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN payment_methods pm ON pm.id = o.payment_method_id
		WHERE o.id = $1
	`, orderColumns)

	return r.queryOrder(ctx, query, id)
}

// FindByToken retrieves a guest order only when both the id and the
// access token match. A missing order and a token mismatch produce the
// same error so callers cannot probe for valid order ids.
func (r *orderRepository) FindByToken(ctx context.Context, id uuid.UUID, accessToken string) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN payment_methods pm ON pm.id = o.payment_method_id
		WHERE o.id = $1 AND o.access_token = $2
	`, orderColumns)

	return r.queryOrder(ctx, query, id, accessToken)
}

func (r *orderRepository) queryOrder(ctx context.Context, query string, args ...interface{}) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.Number,
		&order.UserID,
		&order.ShipperID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.ShippingAddress,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethodID,
		&order.PaymentMethod,
		&order.Subtotal,
		&order.Discount,
		&order.ShippingFee,
		&order.Total,
		&order.AccessToken,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, product_name, variant_name, image_url, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductName,
			&item.VariantName,
			&item.ImageURL,
			&item.UnitPrice,
			&item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// UpdateStatus applies a fulfillment transition as a single
// conditional update on the expected current status
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.FulfillmentStatus) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	return r.conditionalUpdate(ctx, id, query, id, from, to)
}

// UpdatePaymentStatus applies a payment transition as a single
// conditional update on the expected current payment status
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) error {
	query := `
		UPDATE orders
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
	`
	return r.conditionalUpdate(ctx, id, query, id, from, to)
}

// SetPaymentMethod atomically switches the payment method and resets
// the payment status to Pending in one statement
func (r *orderRepository) SetPaymentMethod(ctx context.Context, id uuid.UUID, methodID int64) error {
	query := `
		UPDATE orders
		SET payment_method_id = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, methodID, domain.PaymentPending)
	if err != nil {
		return fmt.Errorf("failed to switch payment method: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) conditionalUpdate(ctx context.Context, id uuid.UUID, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Zero rows means either the order is gone or another writer moved
	// the status first; distinguish the two rather than guessing.
	var current string
	err = r.db.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to check order existence: %w", err)
	}

	return ErrConcurrentModification
}

// ListByShipper returns the page of orders assigned to one shipper
func (r *orderRepository) ListByShipper(ctx context.Context, shipperID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE shipper_id = $1", shipperID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count shipper orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN payment_methods pm ON pm.id = o.payment_method_id
		WHERE o.shipper_id = $1
		ORDER BY o.created_at DESC, o.id ASC
		LIMIT $2 OFFSET $3
	`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, shipperID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shipper orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.Number,
			&order.UserID,
			&order.ShipperID,
			&order.CustomerName,
			&order.CustomerEmail,
			&order.CustomerPhone,
			&order.ShippingAddress,
			&order.Status,
			&order.PaymentStatus,
			&order.PaymentMethodID,
			&order.PaymentMethod,
			&order.Subtotal,
			&order.Discount,
			&order.ShippingFee,
			&order.Total,
			&order.AccessToken,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}
