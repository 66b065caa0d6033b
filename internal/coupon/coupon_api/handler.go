package coupon_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dollmart/internal/auth"
	"dollmart/internal/coupon"
	"dollmart/internal/coupon/qr"
	"dollmart/internal/logger"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CouponService *coupon.CouponService
	QRGenerator   *qr.QRGenerator
	Logger        *logger.Logger
}

func NewHandler(couponService *coupon.CouponService, qrGen *qr.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{CouponService: couponService, QRGenerator: qrGen, Logger: log}
}

// ListCoupons returns the user's full coupon history, newest expiry first.
// With ?available=true only unused, unexpired coupons are returned.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	var (
		coupons interface{}
		err     error
	)
	if r.URL.Query().Get("available") == "true" {
		coupons, err = h.CouponService.ListAvailable(r.Context(), user.UserID)
	} else {
		coupons, err = h.CouponService.ListForUser(r.Context(), user.UserID)
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCoupons: %v", err))
		http.Error(w, "Could not list coupons", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coupons)
}

// CouponQR renders one of the user's coupons as an encrypted QR code PNG.
func (h *Handler) CouponQR(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	couponID, err := strconv.ParseInt(chi.URLParam(r, "couponId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid coupon ID", http.StatusBadRequest)
		return
	}

	c, err := h.CouponService.GetForUser(r.Context(), user.UserID, couponID)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			http.Error(w, "Coupon not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CouponQR: %v", err))
		http.Error(w, "Could not load coupon", http.StatusInternalServerError)
		return
	}

	if c.IsUsed || c.Expired(time.Now()) {
		http.Error(w, "Coupon is no longer redeemable", http.StatusGone)
		return
	}

	png, err := h.QRGenerator.GenerateEncryptedQR(*c)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CouponQR: failed to generate QR: %v", err))
		http.Error(w, "Could not generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
