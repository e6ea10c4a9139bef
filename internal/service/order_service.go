package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parfumerie/internal/domain"
	"parfumerie/internal/mailer"
	"parfumerie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCODNotConfigured means the canonical Cash on Delivery payment
// method row is missing or ambiguous
var ErrCODNotConfigured = errors.New("cash on delivery payment method is not configured")

const emailDispatchTimeout = 10 * time.Second

// OrderItemInput is one line of a checkout draft. The values become an
// immutable snapshot on the created order.
type OrderItemInput struct {
	ProductName string
	VariantName string
	ImageURL    string
	UnitPrice   int64
	Quantity    int
}

// CreateOrderInput is the checkout draft for a new order
type CreateOrderInput struct {
	UserID          *uuid.UUID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	PaymentMethodID int64
	Items           []OrderItemInput
	Subtotal        int64
	Discount        int64
	ShippingFee     int64
	Total           int64
}

// OrderService defines the order lifecycle contract
type OrderService interface {
	Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, next domain.FulfillmentStatus) (*domain.Order, error)
	TransitionPaymentStatus(ctx context.Context, id uuid.UUID, next domain.PaymentStatus) (*domain.Order, error)
	SwitchToCashOnDelivery(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByToken(ctx context.Context, id uuid.UUID, accessToken string) (*domain.Order, error)
	ListForShipper(ctx context.Context, shipperID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
}

type orderService struct {
	orderRepo         repository.OrderRepository
	paymentMethodRepo repository.PaymentMethodRepository
	settingsRepo      repository.SettingsRepository
	sender            mailer.Sender
	shopName          string
	defaultSender     string
	logger            *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentMethodRepo repository.PaymentMethodRepository,
	settingsRepo repository.SettingsRepository,
	sender mailer.Sender,
	shopName string,
	defaultSender string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:         orderRepo,
		paymentMethodRepo: paymentMethodRepo,
		settingsRepo:      settingsRepo,
		sender:            sender,
		shopName:          shopName,
		defaultSender:     defaultSender,
		logger:            logger,
	}
}

// Create completes a checkout: validates the totals invariant,
// snapshots the line items, and persists the order in its initial
// state. Guest orders get an opaque access token for later lookup. A
// COD order is confirmed immediately, so its confirmation email fires
// on creation.
func (s *orderService) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "order must contain at least one item"}
	}

	var itemSum int64
	items := make([]domain.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Quantity < 1 {
			return nil, &ValidationError{Field: "items", Reason: "quantity must be at least 1"}
		}
		if in.UnitPrice < 0 {
			return nil, &ValidationError{Field: "items", Reason: "unit price must be non-negative"}
		}
		item := domain.OrderItem{
			ProductName: in.ProductName,
			VariantName: in.VariantName,
			ImageURL:    in.ImageURL,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
		}
		itemSum += item.LineTotal()
		items = append(items, item)
	}
	if itemSum != input.Subtotal {
		return nil, &ValidationError{Field: "subtotal", Reason: "does not match the sum of line items"}
	}

	method, err := s.paymentMethodRepo.FindByID(ctx, input.PaymentMethodID)
	if err != nil {
		if err == repository.ErrPaymentMethodNotFound {
			return nil, &ValidationError{Field: "payment_method_id", Reason: "unknown payment method"}
		}
		return nil, fmt.Errorf("failed to resolve payment method: %w", err)
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethodID: method.ID,
		PaymentMethod:   method.Name,
		Items:           items,
		Subtotal:        input.Subtotal,
		Discount:        input.Discount,
		ShippingFee:     input.ShippingFee,
		Total:           input.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.ValidateTotals(); err != nil {
		return nil, &ValidationError{Field: "total", Reason: err.Error()}
	}

	if order.IsGuest() {
		token := uuid.NewString()
		order.AccessToken = &token
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if method.Name == domain.CashOnDeliveryName {
		s.dispatchConfirmation(order)
	}

	return order, nil
}

// TransitionStatus validates and applies a fulfillment transition as a
// compare-and-swap against the loaded status
func (s *orderService) TransitionStatus(ctx context.Context, id uuid.UUID, next domain.FulfillmentStatus) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.Status.CanTransitionTo(next); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, order.Status, next); err != nil {
		return nil, err
	}

	order.Status = next
	return order, nil
}

// TransitionPaymentStatus validates and applies a payment transition.
// Entering Paid triggers the confirmation email; a failed dispatch is
// logged and never rolls back the transition.
func (s *orderService) TransitionPaymentStatus(ctx context.Context, id uuid.UUID, next domain.PaymentStatus) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.PaymentStatus.CanTransitionTo(next); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, id, order.PaymentStatus, next); err != nil {
		return nil, err
	}

	order.PaymentStatus = next

	if next == domain.PaymentPaid {
		s.dispatchConfirmation(order)
	}

	return order, nil
}

// SwitchToCashOnDelivery converts a failed (or pending) online payment
// into a deliverable cash order: the canonical COD method is resolved,
// then the method and payment status are reset in one atomic update.
func (s *orderService) SwitchToCashOnDelivery(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	method, err := s.paymentMethodRepo.FindCashOnDelivery(ctx)
	if err != nil {
		if err == repository.ErrPaymentMethodNotFound || err == repository.ErrPaymentMethodAmbiguous {
			return nil, fmt.Errorf("%w: %v", ErrCODNotConfigured, err)
		}
		return nil, fmt.Errorf("failed to resolve cash on delivery method: %w", err)
	}

	if err := s.orderRepo.SetPaymentMethod(ctx, id, method.ID); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderByToken serves guest lookup. The repository returns the same
// not-found error for a missing order and a token mismatch, so neither
// case reveals whether the order id exists.
func (s *orderService) GetOrderByToken(ctx context.Context, id uuid.UUID, accessToken string) (*domain.Order, error) {
	if accessToken == "" {
		return nil, repository.ErrOrderNotFound
	}
	return s.orderRepo.FindByToken(ctx, id, accessToken)
}

// ListForShipper returns orders assigned to one shipper
func (s *orderService) ListForShipper(ctx context.Context, shipperID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.orderRepo.ListByShipper(ctx, shipperID, page, pageSize)
}

// dispatchConfirmation sends the order confirmation email without
// blocking the caller. Failures are logged; the order state is already
// committed and stays committed.
func (s *orderService) dispatchConfirmation(order *domain.Order) {
	if s.sender == nil || order.CustomerEmail == "" {
		return
	}

	from := s.senderAddress()
	msg := mailer.OrderConfirmation(s.shopName, from, order)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
		defer cancel()

		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("Order confirmation email failed",
				zap.String("order_id", order.ID.String()),
				zap.Int64("order_number", order.Number),
				zap.Error(err),
			)
			return
		}

		s.logger.Info("Order confirmation email sent",
			zap.String("order_id", order.ID.String()),
			zap.Int64("order_number", order.Number),
		)
	}()
}

// senderAddress resolves the From address from the shop settings row,
// falling back to the configured default
func (s *orderService) senderAddress() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if err != repository.ErrSettingsNotFound {
			s.logger.Warn("Failed to load shop settings, using default sender", zap.Error(err))
		}
		return s.defaultSender
	}
	if settings.SenderEmail == nil || *settings.SenderEmail == "" {
		return s.defaultSender
	}
	return *settings.SenderEmail
}
