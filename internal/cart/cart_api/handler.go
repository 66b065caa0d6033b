package cart_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dollmart/internal/auth"
	"dollmart/internal/cart"
	"dollmart/internal/catalog"
	"dollmart/internal/logger"
	"dollmart/internal/models"
	"dollmart/internal/stock"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CartService *cart.CartService
	Logger      *logger.Logger
}

func NewHandler(cartService *cart.CartService, log *logger.Logger) *Handler {
	return &Handler{CartService: cartService, Logger: log}
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := h.CartService.Add(r.Context(), user, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		case errors.Is(err, stock.ErrOutOfStock):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.Logger.Warn("API", fmt.Sprintf("AddToCart: %v", err))
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	lines, err := h.CartService.View(r.Context(), user)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ViewCart: %v", err))
		http.Error(w, "Could not load cart", http.StatusInternalServerError)
		return
	}

	view := models.CartView{Items: lines}
	for _, line := range lines {
		view.Total += line.LineTotal
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// UpdateItem changes a cart line's quantity. Quantity zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	cartItemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid cart item ID", http.StatusBadRequest)
		return
	}

	var req models.UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err = h.CartService.Update(r.Context(), user, cartItemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrNotFound):
			http.Error(w, "Cart item not found", http.StatusNotFound)
		case errors.Is(err, stock.ErrOutOfStock):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.Logger.Warn("API", fmt.Sprintf("UpdateItem: %v", err))
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	if err := h.CartService.Clear(r.Context(), user); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ClearCart: %v", err))
		http.Error(w, "Could not clear cart", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
