package auth_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dollmart/internal/auth"
	"dollmart/internal/logger"
	"dollmart/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	AuthService *auth.AuthService
	Logger      *logger.Logger
}

func NewHandler(authService *auth.AuthService, log *logger.Logger) *Handler {
	return &Handler{AuthService: authService, Logger: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Register(r.Context(), &req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Register: %v", err))
		status := http.StatusBadRequest
		if errors.Is(err, auth.ErrEmailTaken) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.Logger.LogSecurity("REGISTER", fmt.Sprintf("new %s account %s", user.UserType, user.Email))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.AuthService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.LogSecurity("LOGIN_FAILED", req.Email)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Login: %v", err))
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	h.Logger.LogSecurity("LOGIN", resp.User.Email)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Me returns the authenticated user's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.AuthService.ListCustomers(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCustomers: %v", err))
		http.Error(w, "Could not list customers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(customers)
}

func (h *Handler) UpdateUserType(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req struct {
		UserType string `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.AuthService.UpdateUserType(r.Context(), userID, req.UserType); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Logger.LogSecurity("USER_TYPE_CHANGED", fmt.Sprintf("user %d is now %s", userID, req.UserType))
	w.WriteHeader(http.StatusNoContent)
}
