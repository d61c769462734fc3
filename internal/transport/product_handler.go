package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"product-api/internal/domain"
	"product-api/internal/middleware"
	"product-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Get("/{id}", h.GetByID)
	})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	view, err := h.productService.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", view.ProductID))
	w.Header().Set("Location", fmt.Sprintf("/products/%d", view.ProductID))
	middleware.RespondWithJSON(w, http.StatusCreated, view)
}

// Update handles full replacement of a product's mutable fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	updated, err := h.productService.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("Failed to update product", zap.Int64("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	if !updated {
		respondNotFound(w, id)
		return
	}

	h.logger.Info("Product updated", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GetByID returns a single product with its status name, discount and final price
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	view, found, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get product", zap.Int64("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if !found {
		respondNotFound(w, id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// decodeProduct writes the 400 response itself and reports false when the body is unusable
func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (domain.ProductRequest, bool) {
	var req domain.ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return req, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	return req, true
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	// product_id is a SERIAL column, so ids beyond int32 can never exist
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}

func respondNotFound(w http.ResponseWriter, id int64) {
	middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product with ID %d was not found.", id))
}
