package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/events"
	"github.com/safar/shop-orders/internal/models"
	"github.com/safar/shop-orders/internal/orders"
	"github.com/safar/shop-orders/internal/pricing"
	"github.com/shopspring/decimal"
)

type Quoter interface {
	Quote(ctx context.Context, req pricing.Request) (*pricing.Breakdown, error)
}

type Creator interface {
	Create(ctx context.Context, sub orders.Submission) (*orders.CommitResult, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	InsertStatusEvent(ctx context.Context, event *models.StatusEvent) (*models.StatusEvent, error)
}

type Publisher interface {
	Publish(eventType string, orderID int64, payload any)
}

type OrdersHandler struct {
	Calculator Quoter
	Builder    Creator
	Orders     OrderStore
	Producer   Publisher
	Timeout    time.Duration
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders/calculate", h.calculate)
	r.Post("/orders", h.create)
	r.Get("/orders/{id}", h.get)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

type calculateRequest struct {
	ShopID                   int64                   `json:"shop_id"`
	Products                 []pricing.LineSelection `json:"products"`
	DeliveryCompanyID        *int64                  `json:"delivery_company_id,omitempty"`
	DeliveryMethodID         *int64                  `json:"delivery_method_id,omitempty"`
	DeliveryLocationMethodID *int64                  `json:"delivery_location_method_id,omitempty"`
	DiscountPercentage       decimal.Decimal         `json:"discount_percentage"`
	OrderType                string                  `json:"order_type"`
}

func (h *OrdersHandler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	breakdown, err := h.Calculator.Quote(ctx, pricing.Request{
		ShopID:                   req.ShopID,
		Lines:                    req.Products,
		OrderType:                req.OrderType,
		DeliveryMethodID:         req.DeliveryMethodID,
		DeliveryLocationMethodID: req.DeliveryLocationMethodID,
		DiscountPercentage:       req.DiscountPercentage,
	})
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid input", err.Error())
		case errors.Is(err, database.ErrShopNotFound),
			errors.Is(err, database.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "not found", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "calculation failed", err.Error())
		}
		return
	}

	writeData(w, http.StatusOK, breakdown)
}

type createOrderRequest struct {
	ShopID                   int64                   `json:"shop_id"`
	CustomerID               *int64                  `json:"customer_id,omitempty"`
	CustomerName             string                  `json:"customer_name"`
	CustomerPhone            string                  `json:"customer_phone,omitempty"`
	CustomerEmail            string                  `json:"customer_email,omitempty"`
	CustomerAddress          string                  `json:"customer_address,omitempty"`
	OrderType                string                  `json:"order_type"`
	PaymentMethod            string                  `json:"payment_method"`
	Subtotal                 decimal.NullDecimal     `json:"subtotal"`
	DeliveryCost             decimal.Decimal         `json:"delivery_cost"`
	DiscountPercentage       decimal.Decimal         `json:"discount_percentage"`
	TotalAmount              decimal.NullDecimal     `json:"total_amount"`
	DeliveryCompanyID        *int64                  `json:"delivery_company_id,omitempty"`
	DeliveryMethodID         *int64                  `json:"delivery_method_id,omitempty"`
	DeliveryLocationMethodID *int64                  `json:"delivery_location_method_id,omitempty"`
	DeliveryNotes            string                  `json:"delivery_notes,omitempty"`
	Products                 []pricing.LineSelection `json:"products"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	result, err := h.Builder.Create(ctx, orders.Submission{
		ShopID:                   req.ShopID,
		CustomerID:               req.CustomerID,
		CustomerName:             req.CustomerName,
		CustomerPhone:            req.CustomerPhone,
		CustomerEmail:            req.CustomerEmail,
		CustomerAddress:          req.CustomerAddress,
		OrderType:                req.OrderType,
		PaymentMethod:            req.PaymentMethod,
		Subtotal:                 req.Subtotal,
		DeliveryCost:             req.DeliveryCost,
		DiscountPercentage:       req.DiscountPercentage,
		TotalAmount:              req.TotalAmount,
		DeliveryCompanyID:        req.DeliveryCompanyID,
		DeliveryMethodID:         req.DeliveryMethodID,
		DeliveryLocationMethodID: req.DeliveryLocationMethodID,
		DeliveryNotes:            req.DeliveryNotes,
		Lines:                    req.Products,
	})
	if err != nil {
		var missingErr *orders.MissingFieldsError
		switch {
		case errors.As(err, &missingErr):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "missing required fields",
				"missing": missingErr.Fields,
			})
		case errors.Is(err, database.ErrShopNotFound):
			writeError(w, http.StatusNotFound, "not found", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "order creation failed", err.Error())
		}
		return
	}

	if h.Producer != nil {
		h.Producer.Publish(events.TypeOrderCreated, result.Header.ID, events.OrderCreatedPayload{
			OrderID:     result.Header.ID,
			OrderNumber: result.Header.OrderNumber,
			ShopID:      result.Header.ShopID,
			OrderType:   result.Header.OrderType,
			ItemCount:   len(result.Items),
			TotalAmount: result.Header.TotalAmount,
		})
	}

	writeData(w, http.StatusCreated, result.Header)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "not found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "get order failed", err.Error())
		return
	}

	writeData(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id", "")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "not found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "get order failed", err.Error())
		return
	}

	if !models.CanTransition(order.Status, req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status transition",
			order.Status+" -> "+req.Status)
		return
	}

	if err := h.Orders.UpdateOrderStatus(ctx, id, req.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "status update failed", err.Error())
		return
	}

	// The status event is an audit trail entry; its failure does not
	// undo the transition.
	if _, err := h.Orders.InsertStatusEvent(ctx, &models.StatusEvent{
		OrderID: id,
		Status:  req.Status,
		Actor:   req.Actor,
		Notes:   req.Notes,
	}); err != nil {
		slogError(r, "status event insert failed", err)
	}

	if h.Producer != nil {
		h.Producer.Publish(events.TypeOrderStatusChanged, id, events.OrderStatusChangedPayload{
			OrderID: id,
			From:    order.Status,
			To:      req.Status,
		})
	}

	writeData(w, http.StatusOK, map[string]string{"status": req.Status})
}
