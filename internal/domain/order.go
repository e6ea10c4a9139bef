package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FulfillmentStatus is the closed set of order fulfillment states
type FulfillmentStatus string

const (
	StatusPending    FulfillmentStatus = "Pending"
	StatusProcessing FulfillmentStatus = "Processing"
	StatusShipped    FulfillmentStatus = "Shipped"
	StatusDelivered  FulfillmentStatus = "Delivered"
	StatusCancelled  FulfillmentStatus = "Cancelled"
)

// fulfillmentRank orders the forward path. Cancelled has no rank; it is
// reachable from any non-terminal state and terminal once entered.
var fulfillmentRank = map[FulfillmentStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// Valid reports whether s is a known fulfillment status
func (s FulfillmentStatus) Valid() bool {
	_, ok := fulfillmentRank[s]
	return ok || s == StatusCancelled
}

// CanTransitionTo validates a fulfillment transition. Forward skips are
// permitted as administrative corrections; backward moves, re-entering
// Pending and leaving Cancelled are not.
func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) error {
	if !next.Valid() {
		return &InvalidTransitionError{From: string(s), To: string(next)}
	}
	if s == StatusCancelled {
		return &InvalidTransitionError{From: string(s), To: string(next), Reason: "order is cancelled"}
	}
	if next == StatusPending {
		return &InvalidTransitionError{From: string(s), To: string(next), Reason: "pending is the creation state"}
	}
	if next == StatusCancelled {
		return nil
	}
	if fulfillmentRank[next] <= fulfillmentRank[s] {
		return &InvalidTransitionError{From: string(s), To: string(next), Reason: "no backward transition"}
	}
	return nil
}

// PaymentStatus is the closed set of payment states
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {PaymentRefunded},
}

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo validates a payment status transition. Failed and
// Refunded are terminal on this axis; the only way back to Pending is
// the explicit switch-to-cash-on-delivery recovery, which bypasses this
// table by resetting the payment method.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) error {
	for _, allowed := range paymentTransitions[s] {
		if next == allowed {
			return nil
		}
	}
	return &InvalidTransitionError{From: string(s), To: string(next)}
}

// PaymentMethod is a configured way to pay for an order
type PaymentMethod struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CashOnDeliveryName is the canonical name of the COD payment method row
const CashOnDeliveryName = "Cash on Delivery"

// OrderItem is an immutable snapshot of a product variant at purchase
// time. Later edits to the live product never alter it.
type OrderItem struct {
	ID          int64     `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"order_id" db:"order_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	VariantName string    `json:"variant_name" db:"variant_name"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	UnitPrice   int64     `json:"unit_price" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
}

// LineTotal is the snapshot price times quantity
func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Order is the order aggregate. Contact and address fields are
// snapshots captured at checkout, not live references to the customer
// profile. Amounts are in minor currency units.
type Order struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	Number          int64             `json:"number" db:"order_number"`
	UserID          *uuid.UUID        `json:"user_id" db:"user_id"`
	ShipperID       *uuid.UUID        `json:"shipper_id" db:"shipper_id"`
	CustomerName    string            `json:"customer_name" db:"customer_name"`
	CustomerEmail   string            `json:"customer_email" db:"customer_email"`
	CustomerPhone   string            `json:"customer_phone" db:"customer_phone"`
	ShippingAddress string            `json:"shipping_address" db:"shipping_address"`
	Status          FulfillmentStatus `json:"status" db:"status"`
	PaymentStatus   PaymentStatus     `json:"payment_status" db:"payment_status"`
	PaymentMethodID int64             `json:"payment_method_id" db:"payment_method_id"`
	PaymentMethod   string            `json:"payment_method" db:"payment_method"`
	Items           []OrderItem       `json:"items"`
	Subtotal        int64             `json:"subtotal" db:"subtotal"`
	Discount        int64             `json:"discount" db:"discount"`
	ShippingFee     int64             `json:"shipping_fee" db:"shipping_fee"`
	Total           int64             `json:"total" db:"total"`
	AccessToken     *string           `json:"-" db:"access_token"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// ValidateTotals enforces total = subtotal - discount + shipping fee
func (o *Order) ValidateTotals() error {
	if o.Subtotal < 0 || o.Discount < 0 || o.ShippingFee < 0 {
		return fmt.Errorf("order amounts must be non-negative")
	}
	if want := o.Subtotal - o.Discount + o.ShippingFee; o.Total != want {
		return fmt.Errorf("order total %d does not equal subtotal - discount + shipping fee (%d)", o.Total, want)
	}
	return nil
}

// IsGuest reports whether the order was placed without an
// authenticated customer
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}
