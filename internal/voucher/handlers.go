package voucher

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/identity"
)

// Handler exposes the voucher service over HTTP: the storefront check/use
// pair plus the admin management surface.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Check reports a voucher code's message, availability and validity window.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	info, err := h.Svc.Check(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"code":             info.Code,
			"message":          info.Message,
			"type":             string(info.Type),
			"value":            info.Value,
			"available":        info.Available,
			"active":           info.Active,
			"mustBeUnique":     info.MustBeUnique,
			"inValidityWindow": info.InValidityWindow,
		},
	})
}

// Use redeems a voucher code into the caller's cart.
func (h *Handler) Use(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	cache := cart.NewCache()
	c, sale, err := h.Svc.Use(r.Context(), cache, payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"saleId": sale.ID.String(),
			"type":   sale.Type,
			"value":  sale.Value.String(),
			"cartId": c.ID.String(),
		},
	})
}

// Feed lists vouchers with the selectable types for the admin overview.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.Svc.Feed(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	total := len(vouchers)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	feed := make([]map[string]any, 0, end-start)
	for _, v := range vouchers[start:end] {
		feed = append(feed, voucherView(v))
	}
	types := make([]string, 0, len(Types))
	for _, t := range Types {
		types = append(types, string(t))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"feed":  feed,
			"types": types,
			"pagination": common.Pagination{
				Page:       page,
				PerPage:    perPage,
				TotalItems: total,
			},
		},
	})
}

// RandomCode returns an unused code for the admin create form.
func (h *Handler) RandomCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.Svc.RandomCode(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"code": code}})
}

type createPayload struct {
	Code         string  `json:"code" validate:"required"`
	Type         string  `json:"type" validate:"required"`
	Value        string  `json:"value"`
	Percentage   *int    `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	ReferenceID  *string `json:"referenceId"`
	UsageLimit   *int    `json:"usageLimit" validate:"omitempty,gte=1"`
	MustBeUnique *bool   `json:"mustBeUnique"`
	Note         *string `json:"note"`
	ValidFrom    *string `json:"validFrom"`
	ValidTo      *string `json:"validTo"`
}

// Create registers a new voucher definition.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", err.Error())
			return
		}
	}
	in := CreateInput{
		Code:         payload.Code,
		Type:         Type(payload.Type),
		Value:        payload.Value,
		Percentage:   payload.Percentage,
		ReferenceID:  payload.ReferenceID,
		UsageLimit:   payload.UsageLimit,
		MustBeUnique: true,
		Note:         payload.Note,
	}
	if payload.MustBeUnique != nil {
		in.MustBeUnique = *payload.MustBeUnique
	}
	var err error
	if in.ValidFrom, err = parseTimestamp(payload.ValidFrom); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid validFrom", nil)
		return
	}
	if in.ValidTo, err = parseTimestamp(payload.ValidTo); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid validTo", nil)
		return
	}

	v, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": voucherView(v)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "voucher not found", nil)
	case errors.Is(err, ErrUnavailable):
		common.JSONError(w, http.StatusConflict, "VOUCHER_UNAVAILABLE", "voucher is not available or has been used", nil)
	case errors.Is(err, ErrConflict):
		common.JSONError(w, http.StatusConflict, "VOUCHER_CONFLICT", "voucher cannot be combined with other sales", nil)
	case errors.Is(err, ErrCodeExists):
		common.JSONError(w, http.StatusConflict, "CODE_EXISTS", "voucher code already exists", nil)
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrPercentageRequired), errors.Is(err, ErrReferenceRequired):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrReferenceNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, "REFERENCE_NOT_FOUND", "referenced entity does not exist", nil)
	case errors.Is(err, identity.ErrNoActor):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no cart session", nil)
	default:
		h.Svc.Log.Error().Err(err).Msg("voucher handler failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process voucher", nil)
	}
}

func voucherView(v Voucher) map[string]any {
	view := map[string]any{
		"id":           v.ID.String(),
		"code":         v.Code,
		"type":         string(v.Type),
		"value":        v.Value.String(),
		"usedCount":    v.UsedCount,
		"active":       v.Active,
		"available":    v.IsAvailable(),
		"state":        string(v.State()),
		"mustBeUnique": v.MustBeUnique,
		"insertedAt":   v.InsertedAt.Format(time.RFC3339),
	}
	if v.Percentage != nil {
		view["percentage"] = *v.Percentage
	}
	if v.ReferenceID != nil {
		view["referenceId"] = v.ReferenceID.String()
	}
	if v.UsageLimit != nil {
		view["usageLimit"] = *v.UsageLimit
	}
	if v.Note != nil {
		view["note"] = *v.Note
	}
	if v.ValidFrom != nil {
		view["validFrom"] = v.ValidFrom.Format(time.RFC3339)
	}
	if v.ValidTo != nil {
		view["validTo"] = v.ValidTo.Format(time.RFC3339)
	}
	if v.UsedAt != nil {
		view["usedAt"] = v.UsedAt.Format(time.RFC3339)
	}
	return view
}

func parseTimestamp(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
