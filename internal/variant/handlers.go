package variant

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-keranjang/internal/common"
)

// Handler exposes the variant status check the storefront polls while the
// shopper narrows product options.
type Handler struct {
	Svc *Service
	Log zerolog.Logger
}

// CheckStatus resolves a partial option selection against a product's
// variants.
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string            `json:"productId"`
		Options   map[string]string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}

	status, err := h.Svc.CheckStatus(r.Context(), productID, payload.Options)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("variant status check failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to check variant status", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": status})
}
