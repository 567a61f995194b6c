package order

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/obs"
)

// Handler exposes the checkout handoff.
type Handler struct {
	Manager  Manager
	Carts    *cart.Manager
	Validate *validator.Validate
	Log      zerolog.Logger
}

type checkoutAddress struct {
	Street      string `json:"street" validate:"required"`
	City        string `json:"city" validate:"required"`
	Zip         string `json:"zip" validate:"required"`
	CompanyName string `json:"companyName"`
	CompanyID   string `json:"companyId"`
	VatID       string `json:"vatId"`
}

type checkoutPayload struct {
	FirstName string           `json:"firstName" validate:"required"`
	LastName  string           `json:"lastName" validate:"required"`
	Email     string           `json:"email" validate:"required,email"`
	Phone     string           `json:"phone"`
	Notice    string           `json:"notice"`
	Gdpr      bool             `json:"gdpr"`
	Address   checkoutAddress  `json:"address" validate:"required"`
	Invoice   *checkoutAddress `json:"invoiceAddress"`
}

// Checkout creates an order from the caller's cart and drops the cart on
// success. Delivery and payment must already be selected.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var payload checkoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !payload.Gdpr {
		common.JSONError(w, http.StatusBadRequest, "GDPR_REQUIRED", "terms of service must be accepted", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", err.Error())
			return
		}
	}

	cache := cart.NewCache()
	c, err := h.Carts.GetCart(r.Context(), cache, false)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no cart session", nil)
		return
	}
	if c.IsEmpty() {
		recordCheckout("empty_cart")
		common.JSONError(w, http.StatusConflict, "EMPTY_CART", "cart has no purchasable items", nil)
		return
	}
	if c.Delivery == nil || c.Payment == nil {
		recordCheckout("rejected")
		common.JSONError(w, http.StatusConflict, "DELIVERY_REQUIRED", "delivery and payment must be selected", nil)
		return
	}

	info := Info{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Notice:    payload.Notice,
		Address:   toAddress(payload.Address),
	}
	if payload.Invoice != nil {
		info.Invoice = toAddress(*payload.Invoice)
	} else {
		info.Invoice = info.Address
	}

	o, err := h.Manager.CreateOrder(r.Context(), info, c)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			recordCheckout("empty_cart")
			common.JSONError(w, http.StatusConflict, "EMPTY_CART", "cart has no purchasable items", nil)
			return
		}
		recordCheckout("error")
		h.Log.Error().Err(err).Msg("checkout failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to create order", nil)
		return
	}
	recordCheckout("accepted")
	if err := h.Carts.RemoveCart(r.Context(), cache); err != nil {
		// The order exists; losing the cart cleanup must not fail checkout.
		h.Log.Error().Err(err).Str("order", o.ID.String()).Msg("cart cleanup after checkout failed")
	}

	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"id":   o.ID.String(),
			"hash": o.Hash,
		},
	})
}

func recordCheckout(result string) {
	if obs.CheckoutTotal == nil {
		return
	}
	obs.CheckoutTotal.WithLabelValues(result).Inc()
}

func toAddress(a checkoutAddress) Address {
	return Address{
		Street:      a.Street,
		City:        a.City,
		Zip:         a.Zip,
		CompanyName: a.CompanyName,
		CompanyID:   a.CompanyID,
		VatID:       a.VatID,
	}
}
