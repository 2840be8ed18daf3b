package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := QueryOptions{
		Search:   q.Get("q"),
		Category: q.Get("category"),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("skip")); err == nil {
		opts.Skip = v
	}

	list, err := h.svc.ListProducts(r.Context(), opts)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to fetch products", zap.Error(err))
		utils.WriteJSONError(w, "failed to fetch products", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.WriteJSONError(w, "product id is required", http.StatusBadRequest)
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			utils.WriteJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		logger.FromCtx(r.Context()).Error("failed to fetch product", zap.String("id", id), zap.Error(err))
		utils.WriteJSONError(w, "failed to fetch product", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to fetch categories", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, categories)
}
