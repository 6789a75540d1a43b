package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/mkravec/product-catalog/internal/delivery/http/middleware"
	"github.com/mkravec/product-catalog/internal/delivery/http/request"
	"github.com/mkravec/product-catalog/internal/delivery/http/response"
	"github.com/mkravec/product-catalog/internal/domain"
	"github.com/mkravec/product-catalog/internal/pkg/logger"
	"github.com/mkravec/product-catalog/internal/usecase/catalog"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *catalog.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *catalog.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
}

// Create handles POST /api/v1/products
// @Summary Create a new product
// @Description Create a new product owned by the authenticated user
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body CreateProductRequest true "Product details"
// @Success 201 {object} response.Envelope "Product created successfully"
// @Failure 400 {object} response.Envelope "Invalid request body"
// @Failure 401 {object} response.Envelope "Unauthenticated"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	if ownerID == uuid.Nil {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
	}

	if err := h.service.Create(r.Context(), product, ownerID); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, "Product created successfully", product)
}

// List handles GET /api/v1/products
// @Summary List products
// @Description Get a filtered, sorted, paginated list of products
// @Tags Products
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param search query string false "Full-text search over name and description"
// @Param category query string false "Exact category match"
// @Param sortBy query string false "Sort field: name, price, category, createdAt, updatedAt" default(createdAt)
// @Param order query string false "Sort order: asc or desc" default(desc)
// @Success 200 {object} response.Envelope "Page of products"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := request.GetProductFilter(r)

	page, err := h.service.GetList(r.Context(), filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, "Products retrieved successfully", page)
}

// GetByID handles GET /api/v1/products/:id
// @Summary Get a product by ID
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} response.Envelope "Product details"
// @Failure 400 {object} response.Envelope "Invalid product ID"
// @Failure 404 {object} response.Envelope "Product not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, "Product retrieved successfully", product)
}

// Update handles PUT /api/v1/products/:id
// @Summary Update a product
// @Description Apply a partial update to a product owned by the authenticated user
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param product body domain.ProductUpdate true "Fields to update"
// @Success 200 {object} response.Envelope "Product updated successfully"
// @Failure 400 {object} response.Envelope "Invalid request"
// @Failure 401 {object} response.Envelope "Unauthenticated"
// @Failure 403 {object} response.Envelope "Not the owner"
// @Failure 404 {object} response.Envelope "Product not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	if requesterID == uuid.Nil {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var update domain.ProductUpdate
	if err := request.DecodeJSON(r, &update); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.Update(r.Context(), id, update, requesterID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, "Product updated successfully", product)
}

// Delete handles DELETE /api/v1/products/:id
// @Summary Delete a product
// @Description Delete a product owned by the authenticated user
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} response.Envelope "Product deleted successfully"
// @Failure 400 {object} response.Envelope "Invalid product ID"
// @Failure 401 {object} response.Envelope "Unauthenticated"
// @Failure 403 {object} response.Envelope "Not the owner"
// @Failure 404 {object} response.Envelope "Product not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	if requesterID == uuid.Nil {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if _, err := h.service.Delete(r.Context(), id, requesterID); err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, "Product deleted successfully", nil)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ProductHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "You are not authorized to modify this product")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "Authentication required")
	default:
		h.logger.Error("Internal error in product handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
