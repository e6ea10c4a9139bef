package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parfumerie/internal/domain"
)

var (
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	// ErrPaymentMethodAmbiguous means more than one row matched the
	// canonical name; reference data is misconfigured.
	ErrPaymentMethodAmbiguous = errors.New("payment method name matches multiple rows")
)

// PaymentMethodRepository defines the interface for payment method
// reference data
type PaymentMethodRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.PaymentMethod, error)
	FindCashOnDelivery(ctx context.Context) (*domain.PaymentMethod, error)
}

type paymentMethodRepository struct {
	db *sql.DB
}

// NewPaymentMethodRepository creates a new instance of PaymentMethodRepository
func NewPaymentMethodRepository(db *sql.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

// FindByID retrieves a payment method by ID
func (r *paymentMethodRepository) FindByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	query := `SELECT id, name, active, created_at FROM payment_methods WHERE id = $1`

	method := &domain.PaymentMethod{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&method.ID,
		&method.Name,
		&method.Active,
		&method.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("failed to find payment method: %w", err)
	}

	return method, nil
}

// FindCashOnDelivery looks up the canonical COD row by exact name.
// Exactly one active row must exist; zero or multiple matches both mean
// the reference data is broken.
func (r *paymentMethodRepository) FindCashOnDelivery(ctx context.Context) (*domain.PaymentMethod, error) {
	query := `SELECT id, name, active, created_at FROM payment_methods WHERE name = $1 AND active`

	rows, err := r.db.QueryContext(ctx, query, domain.CashOnDeliveryName)
	if err != nil {
		return nil, fmt.Errorf("failed to find cash on delivery method: %w", err)
	}
	defer rows.Close()

	var method *domain.PaymentMethod
	for rows.Next() {
		if method != nil {
			return nil, ErrPaymentMethodAmbiguous
		}
		method = &domain.PaymentMethod{}
		err := rows.Scan(&method.ID, &method.Name, &method.Active, &method.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment methods: %w", err)
	}
	if method == nil {
		return nil, ErrPaymentMethodNotFound
	}

	return method, nil
}
