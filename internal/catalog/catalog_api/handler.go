package catalog_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dollmart/internal/auth"
	"dollmart/internal/catalog"
	"dollmart/internal/logger"
	"dollmart/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CatalogService *catalog.CatalogService
	Logger         *logger.Logger
}

func NewHandler(catalogService *catalog.CatalogService, log *logger.Logger) *Handler {
	return &Handler{CatalogService: catalogService, Logger: log}
}

// productView is a Product with the price the requesting user actually pays.
type productView struct {
	models.Product
	Price float64 `json:"price"`
}

func (h *Handler) viewFor(user *models.User, products []models.Product) []productView {
	userType := models.UserTypeIndividual
	if user != nil {
		userType = user.UserType
	}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, Price: p.PriceFor(userType)}
	}
	return views
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("q")

	products, err := h.CatalogService.ListProducts(r.Context(), category, search)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: %v", err))
		http.Error(w, "Could not list products", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.viewFor(auth.CurrentUser(r.Context()), products))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.CatalogService.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetProduct: %v", err))
		http.Error(w, "Could not load product", http.StatusInternalServerError)
		return
	}

	views := h.viewFor(auth.CurrentUser(r.Context()), []models.Product{*product})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views[0])
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.CatalogService.ListCategories(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCategories: %v", err))
		http.Error(w, "Could not list categories", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var input models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.CatalogService.AddProduct(r.Context(), input)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("AddProduct: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Logger.LogDatabase("INSERT", "products", fmt.Sprintf("product %d (%s) added", product.ProductID, product.Name))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var update models.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.CatalogService.UpdateProduct(r.Context(), productID, update)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.Logger.Warn("API", fmt.Sprintf("UpdateProduct: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Logger.LogDatabase("UPDATE", "products", fmt.Sprintf("product %d updated", product.ProductID))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}
