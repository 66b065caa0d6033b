package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dollmart/internal/auth"
	"dollmart/internal/coupon"
	"dollmart/internal/logger"
	"dollmart/internal/models"
	"dollmart/internal/order"
	"dollmart/internal/stock"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

// PlaceOrder converts the user's cart into an order: price, optional coupon,
// payment method, commit. Payment is simulated and always succeeds.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	var req models.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.OrderService.PlaceOrder(r.Context(), user, req.CouponCode, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, order.ErrInvalidPaymentMethod):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, coupon.ErrInvalidCoupon):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, stock.ErrOutOfStock):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.Logger.Error("API", fmt.Sprintf("PlaceOrder: %v", err))
			http.Error(w, "Could not place order", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// MyOrders lists the user's own orders, newest first. An optional ?status=
// filter narrows by order status.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	orders, err := h.OrderService.OrdersForUser(r.Context(), user, r.URL.Query().Get("status"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyOrders: %v", err))
		http.Error(w, "Could not list orders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *Handler) OrderDetails(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	details, err := h.OrderService.OrderDetails(r.Context(), user, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("OrderDetails: %v", err))
		http.Error(w, "Could not load order", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}

// AllOrders is the manager view across every customer.
func (h *Handler) AllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.AllOrders(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AllOrders: %v", err))
		http.Error(w, "Could not list orders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}
