package transport

import (
	"errors"
	"net/http"
	"strconv"

	"parfumerie/internal/domain"
	"parfumerie/internal/middleware"
	"parfumerie/internal/repository"
	"parfumerie/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderItemPayload is one checkout line
type OrderItemPayload struct {
	ProductName string `json:"product_name" validate:"required"`
	VariantName string `json:"variant_name"`
	ImageURL    string `json:"image_url"`
	UnitPrice   int64  `json:"unit_price" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
}

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	CustomerName    string             `json:"customer_name" validate:"required"`
	CustomerEmail   string             `json:"customer_email" validate:"required,email"`
	CustomerPhone   string             `json:"customer_phone"`
	ShippingAddress string             `json:"shipping_address" validate:"required"`
	PaymentMethodID int64              `json:"payment_method_id" validate:"required"`
	Items           []OrderItemPayload `json:"items" validate:"required,min=1,dive"`
	Subtotal        int64              `json:"subtotal" validate:"gte=0"`
	Discount        int64              `json:"discount" validate:"gte=0"`
	ShippingFee     int64              `json:"shipping_fee" validate:"gte=0"`
	Total           int64              `json:"total" validate:"gte=0"`
}

// TransitionRequest carries the requested status value
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrderResponse returns the created order together with the
// guest access token, which the order itself never serializes
type CreateOrderResponse struct {
	Order       *domain.Order `json:"order"`
	AccessToken string        `json:"access_token,omitempty"`
}

// OrderHandler handles HTTP requests for order lifecycle operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, optionalAuth, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		// Checkout serves both guests and signed-in customers
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Post("/", h.Create)
		})

		// Guest lookup is public; the access token is the credential
		r.Get("/{id}/guest", h.GuestLookup)

		// Administrative lifecycle operations
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireOrderManager(h.logger))
			r.Patch("/{id}/status", h.TransitionStatus)
			r.Patch("/{id}/payment-status", h.TransitionPaymentStatus)
			r.Post("/{id}/cod", h.SwitchToCashOnDelivery)
		})
	})

	r.Route("/api/shipper", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(h.logger, domain.RoleShipper))
		r.Get("/orders", h.ListShipperOrders)
	})
}

// Create handles checkout
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		PaymentMethodID: req.PaymentMethodID,
		Subtotal:        req.Subtotal,
		Discount:        req.Discount,
		ShippingFee:     req.ShippingFee,
		Total:           req.Total,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			ImageURL:    item.ImageURL,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	// An authenticated customer owns the order; a guest gets a token
	if userIDStr, ok := middleware.GetUserID(r.Context()); ok {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			input.UserID = &userID
		}
	}

	order, err := h.orderService.Create(r.Context(), input)
	if err != nil {
		h.respondOrderError(w, err, "failed to create order")
		return
	}

	response := CreateOrderResponse{Order: order}
	if order.AccessToken != nil {
		response.AccessToken = *order.AccessToken
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.Int64("order_number", order.Number),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, response)
}

// GuestLookup returns a guest order when id and token both match
func (h *OrderHandler) GuestLookup(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	token := r.URL.Query().Get("token")

	order, err := h.orderService.GetOrderByToken(r.Context(), orderID, token)
	if err != nil {
		h.respondOrderError(w, err, "failed to look up order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// TransitionStatus handles a fulfillment status change
func (h *OrderHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.TransitionStatus(r.Context(), orderID, domain.FulfillmentStatus(req.Status))
	if err != nil {
		h.respondOrderError(w, err, "failed to update order status")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// TransitionPaymentStatus handles a payment status change
func (h *OrderHandler) TransitionPaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.TransitionPaymentStatus(r.Context(), orderID, domain.PaymentStatus(req.Status))
	if err != nil {
		h.respondOrderError(w, err, "failed to update payment status")
		return
	}

	h.logger.Info("Order payment status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// SwitchToCashOnDelivery converts the order to cash on delivery
func (h *OrderHandler) SwitchToCashOnDelivery(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.SwitchToCashOnDelivery(r.Context(), orderID)
	if err != nil {
		h.respondOrderError(w, err, "failed to switch payment method")
		return
	}

	h.logger.Info("Order switched to cash on delivery",
		zap.String("order_id", order.ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListShipperOrders lists orders assigned to the calling shipper
func (h *OrderHandler) ListShipperOrders(w http.ResponseWriter, r *http.Request) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shipperID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid shipper ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	orders, total, err := h.orderService.ListForShipper(r.Context(), shipperID, page, pageSize)
	if err != nil {
		h.respondOrderError(w, err, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders":      orders,
		"total_count": total,
	})
}

func (h *OrderHandler) parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return uuid.Nil, false
	}
	return orderID, true
}

// respondOrderError maps service and repository errors onto stable
// HTTP status categories
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		middleware.RespondWithError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var transitionErr *domain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, transitionErr.Error())
		return
	}

	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrConcurrentModification):
		middleware.RespondWithError(w, http.StatusConflict, "order was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrCODNotConfigured):
		h.logger.Error("COD payment method misconfigured", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "payment method configuration error")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
