package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/identity"
	"github.com/noah-isme/backend-keranjang/internal/money"
	"github.com/noah-isme/backend-keranjang/internal/obs"
)

// Handler exposes the cart manager over HTTP. All routes operate on the
// caller's own cart; the actor comes from the request context.
type Handler struct {
	Manager *Manager
}

// Get returns the current cart with computed totals. A shopper without a
// persisted cart gets an empty view; nothing is created on read.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cache := NewCache()
	c, err := h.Manager.GetCart(r.Context(), cache, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartView(c)})
}

// Buy adds a product (or one of its variants) to the cart.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string  `json:"productId"`
		VariantID *string `json:"variantId"`
		Count     int     `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	var variantID *uuid.UUID
	if payload.VariantID != nil && strings.TrimSpace(*payload.VariantID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*payload.VariantID))
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid variant id", nil)
			return
		}
		variantID = &parsed
	}
	if payload.Count == 0 {
		payload.Count = 1
	}

	cache := NewCache()
	c, item, err := h.Manager.BuyProduct(r.Context(), cache, productID, variantID, payload.Count)
	recordMutation("buy", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"cart":   cartView(c),
			"itemId": item.ID.String(),
		},
	})
}

// UpdateItem changes a line's quantity. Count zero removes the line, the
// same contract the storefront uses for its stepper control.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Count < 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "count must not be negative", nil)
		return
	}

	cache := NewCache()
	var c *Cart
	if payload.Count == 0 {
		c, err = h.Manager.RemoveItem(r.Context(), cache, itemID)
	} else {
		c, err = h.Manager.ChangeItemCount(r.Context(), cache, itemID, payload.Count)
	}
	recordMutation("update_item", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartView(c)})
}

// DeleteItem removes a line from the cart.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	cache := NewCache()
	c, err := h.Manager.RemoveItem(r.Context(), cache, itemID)
	recordMutation("delete_item", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartView(c)})
}

// DeleteSale removes an applied discount, returning a voucher-backed one to
// circulation.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return
	}
	cache := NewCache()
	c, err := h.Manager.RemoveSale(r.Context(), cache, saleID)
	recordMutation("delete_sale", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartView(c)})
}

// DeliveryPaymentOptions lists the delivery methods and, per delivery, the
// payments it can be combined with, for the checkout step selector.
func (h *Handler) DeliveryPaymentOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.Manager.DeliveryPaymentOptions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	deliveries := make([]map[string]any, 0, len(options))
	for _, opt := range options {
		payments := make([]map[string]any, 0, len(opt.Payments))
		for _, p := range opt.Payments {
			payments = append(payments, map[string]any{
				"code":  p.Code,
				"name":  p.Name,
				"price": p.Price.String(),
			})
		}
		deliveries = append(deliveries, map[string]any{
			"code":     opt.Delivery.Code,
			"name":     opt.Delivery.Name,
			"price":    opt.Delivery.Price.String(),
			"payments": payments,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deliveries": deliveries}})
}

// SetDeliveryPayment selects delivery and/or payment by code in one call,
// mirroring the storefront checkout step.
func (h *Handler) SetDeliveryPayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Delivery string `json:"delivery"`
		Payment  string `json:"payment"`
		BranchID *int64 `json:"branchId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.Delivery = strings.TrimSpace(payload.Delivery)
	payload.Payment = strings.TrimSpace(payload.Payment)
	if payload.Delivery == "" && payload.Payment == "" && payload.BranchID == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "nothing to select", nil)
		return
	}

	cache := NewCache()
	var (
		c   *Cart
		err error
	)
	defer func() { recordMutation("delivery_payment", err) }()
	if payload.Delivery != "" {
		c, err = h.Manager.SetDelivery(r.Context(), cache, payload.Delivery, payload.BranchID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	} else if payload.BranchID != nil {
		c, err = h.Manager.SetDeliveryBranch(r.Context(), cache, payload.BranchID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if payload.Payment != "" {
		c, err = h.Manager.SetPayment(r.Context(), cache, payload.Payment)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartView(c)})
}

// Remove drops the whole cart.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	cache := NewCache()
	err := h.Manager.RemoveCart(r.Context(), cache)
	recordMutation("remove_cart", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"removed": true}})
}

// Count returns the number of cart lines for badge rendering.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.Manager.ItemsCount(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"count": count}})
}

func recordMutation(op string, err error) {
	if obs.CartMutationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.CartMutationsTotal.WithLabelValues(op, result).Inc()
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrIntegrityViolation):
		// A caller addressing another cart's rows is a probe, not a mistake.
		h.Manager.Log.Warn().Err(err).Str("path", r.URL.Path).Msg("cart integrity violation")
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "item does not belong to your cart", nil)
	case errors.Is(err, ErrInvalidCount):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "count must be at least one", nil)
	case errors.Is(err, ErrVariantRequired):
		common.JSONError(w, http.StatusBadRequest, "VARIANT_REQUIRED", "product requires a variant selection", nil)
	case errors.Is(err, ErrVariantMismatch):
		common.JSONError(w, http.StatusBadRequest, "VARIANT_MISMATCH", "variant does not belong to the product", nil)
	case errors.Is(err, ErrSoldOut):
		common.JSONError(w, http.StatusConflict, "SOLD_OUT", "product is not available", nil)
	case errors.Is(err, ErrDeliveryRequired):
		common.JSONError(w, http.StatusConflict, "DELIVERY_REQUIRED", "select a delivery before a payment", nil)
	case errors.Is(err, ErrIncompatiblePayment):
		common.JSONError(w, http.StatusConflict, "INCOMPATIBLE_PAYMENT", "payment is not available for the selected delivery", nil)
	case errors.Is(err, ErrIdentifierConflict):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "cart was created concurrently, retry", nil)
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrSaleNotFound),
		errors.Is(err, ErrNotFound), errors.Is(err, delivery.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, identity.ErrNoActor), errors.Is(err, identity.ErrInvalidActorID):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no cart session", nil)
	default:
		h.Manager.Log.Error().Err(err).Str("path", r.URL.Path).Msg("cart handler failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process cart", nil)
	}
}

func cartView(c *Cart) map[string]any {
	items := make([]map[string]any, 0, len(c.ActiveItems()))
	for _, item := range c.ActiveItems() {
		items = append(items, map[string]any{
			"id":          item.ID.String(),
			"productId":   item.Product.ID.String(),
			"variantId":   uuidPtr(item.VariantID()),
			"name":        item.Name(),
			"description": item.Description(),
			"count":       item.Count,
			"unitPrice":   item.BasicPrice().Render(true),
			"price":       item.Price().Render(true),
		})
	}
	sales := make([]map[string]any, 0, len(c.Sales))
	for _, sale := range c.Sales {
		sales = append(sales, map[string]any{
			"id":        sale.ID.String(),
			"voucherId": uuidPtr(sale.VoucherID),
			"type":      sale.Type,
			"value":     sale.Value.String(),
		})
	}
	itemsPrice := c.ItemsPrice(true)
	var priceToFreeDelivery *string
	if limit := c.Runtime.FreeDeliveryLimit; limit.IsPositive() && itemsPrice.Value().LessThan(limit) {
		remaining := money.NewPriceFromDecimal(limit.Sub(itemsPrice.Value()), c.Currency).Render(true)
		priceToFreeDelivery = &remaining
	} else if limit.IsPositive() && obs.FreeDeliveryGrantedTotal != nil {
		obs.FreeDeliveryGrantedTotal.Inc()
	}
	view := map[string]any{
		"currency": c.Currency.Code,
		"items":    items,
		"sales":    sales,
		"price": map[string]any{
			"items":           itemsPrice.Render(true),
			"itemsWithoutVat": c.ItemsPrice(false).Render(true),
			"delivery":        c.DeliveryPrice(itemsPrice).Render(true),
			"total":           c.Price().Render(true),
			"totalWithoutVat": c.PriceWithoutVat().Render(true),
		},
		"priceToFreeDelivery": priceToFreeDelivery,
	}
	if c.Flushed() {
		view["id"] = c.ID.String()
	}
	if c.Delivery != nil {
		view["delivery"] = map[string]any{
			"code":  c.Delivery.Code,
			"name":  c.Delivery.Name,
			"price": c.Delivery.Price.String(),
		}
	}
	if c.Payment != nil {
		view["payment"] = map[string]any{
			"code":  c.Payment.Code,
			"name":  c.Payment.Name,
			"price": c.Payment.Price.String(),
		}
	}
	if c.DeliveryBranchID != nil {
		view["deliveryBranchId"] = *c.DeliveryBranchID
	}
	return view
}

func uuidPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
