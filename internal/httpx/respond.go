package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopventory/shopventory/internal/shop"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Insufficient
// stock identifies the offending product in the body.
func writeError(w http.ResponseWriter, err error) {
	var stockErr *shop.InsufficientStockError
	var valErr *shop.ValidationError
	switch {
	case errors.Is(err, shop.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
		})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": valErr.Error()})
	case errors.Is(err, shop.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// pagination reads ?skip and ?limit; services clamp the values.
func pagination(r *http.Request) (skip, limit int) {
	if v := r.URL.Query().Get("skip"); v != "" {
		skip, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	return skip, limit
}
