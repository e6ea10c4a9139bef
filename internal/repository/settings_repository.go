package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrSettingsNotFound = errors.New("shop settings not found")

// ShopSettings is the single configuration row for the storefront
type ShopSettings struct {
	ID          int64   `db:"id"`
	ShopName    string  `db:"shop_name"`
	SenderEmail *string `db:"sender_email"`
}

// SettingsRepository defines the interface for shop settings access
type SettingsRepository interface {
	Get(ctx context.Context) (*ShopSettings, error)
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the shop settings row
func (r *settingsRepository) Get(ctx context.Context) (*ShopSettings, error) {
	query := `SELECT id, shop_name, sender_email FROM shop_settings ORDER BY id LIMIT 1`

	settings := &ShopSettings{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&settings.ID,
		&settings.ShopName,
		&settings.SenderEmail,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to load shop settings: %w", err)
	}

	return settings, nil
}
