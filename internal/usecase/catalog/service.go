package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mkravec/product-catalog/internal/domain"
	"github.com/mkravec/product-catalog/internal/pkg/logger"
	pkgvalidator "github.com/mkravec/product-catalog/internal/pkg/validator"
)

// Event types published on product mutations
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"

	// EventsSubject is the NATS subject product events are published to
	EventsSubject = "products.events"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ProductEvent represents a product mutation event
type ProductEvent struct {
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Product   *domain.Product `json:"product"`
}

// Service handles catalog business logic with read-through caching.
//
// Reads probe the cache first and fall back to the store on a miss,
// populating the cache on the way out. Mutations always go to the store
// first and invalidate cache entries afterwards; cache failures on either
// path are logged and absorbed, so a dead cache costs latency, never
// correctness or write availability. Store errors propagate unchanged.
type Service struct {
	repo      domain.ProductRepository
	cache     domain.ProductCache
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new catalog service
func NewService(
	repo domain.ProductRepository,
	cache domain.ProductCache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

// Create validates and stores a new product owned by ownerID, then
// invalidates all cached list pages (membership and counts changed)
func (s *Service) Create(ctx context.Context, product *domain.Product, ownerID uuid.UUID) error {
	product.OwnerID = ownerID

	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	if err := s.cache.InvalidateProductPages(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate product pages: %v", err)
	}

	s.publishEvent(ctx, EventProductCreated, product)

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"owner_id":   ownerID,
	}).Info("Product created successfully")

	return nil
}

// GetByID retrieves a product, serving from cache when possible
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	cached, err := s.cache.GetProduct(ctx, id)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s", id)
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Cache read failed for product %s: %v", id, err)
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warnf("Failed to cache product %s: %v", id, err)
	}

	return product, nil
}

// GetList retrieves one page of products matching the filter, serving
// from cache when possible. Defaults are applied before the store query
// and before key derivation, so equivalent queries share one entry.
func (s *Service) GetList(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = filter.Normalized()

	cached, err := s.cache.GetProductPage(ctx, filter)
	if err == nil {
		s.logger.Debugf("Cache hit for product page %+v", filter)
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Cache read failed for product page: %v", err)
	}

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, err
	}

	page := domain.NewProductPage(products, total, filter)

	if err := s.cache.SetProductPage(ctx, filter, page); err != nil {
		s.logger.Warnf("Failed to cache product page: %v", err)
	}

	return page, nil
}

// Update applies a partial update after checking that the requester owns
// the stored product, then invalidates the product entry and all list pages
func (s *Service) Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate, requesterID uuid.UUID) (*domain.Product, error) {
	if err := s.validate.Struct(update); err != nil {
		s.logger.Error("Product update validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	// Ownership is checked against the stored owner, never request data
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != requesterID {
		s.logger.WithFields(map[string]interface{}{
			"product_id":   id,
			"owner_id":     current.OwnerID,
			"requester_id": requesterID,
		}).Warn("Update rejected: requester is not the owner")
		return nil, domain.ErrForbidden
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		s.logger.Error("Failed to update product", err)
		return nil, err
	}

	s.invalidateProduct(ctx, id)

	s.publishEvent(ctx, EventProductUpdated, updated)

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product updated successfully")

	return updated, nil
}

// Delete removes a product after checking ownership and returns the
// removed snapshot
func (s *Service) Delete(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) (*domain.Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != requesterID {
		s.logger.WithFields(map[string]interface{}{
			"product_id":   id,
			"owner_id":     current.OwnerID,
			"requester_id": requesterID,
		}).Warn("Delete rejected: requester is not the owner")
		return nil, domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", err)
		return nil, err
	}

	s.invalidateProduct(ctx, id)

	s.publishEvent(ctx, EventProductDeleted, current)

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return current, nil
}

// invalidateProduct drops the point entry and every list page after a
// write. The store mutation has already committed at this point; a reader
// that fetched pre-write state and lands its cache write after this sweep
// can leave a stale entry behind, which the TTL bounds.
func (s *Service) invalidateProduct(ctx context.Context, id uuid.UUID) {
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warnf("Failed to invalidate product %s: %v", id, err)
	}
	if err := s.cache.InvalidateProductPages(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate product pages: %v", err)
	}
}

// publishEvent publishes a product event; failures are logged and never
// block the caller
func (s *Service) publishEvent(ctx context.Context, eventType string, product *domain.Product) {
	if s.publisher == nil {
		return
	}

	event := ProductEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		Product:   product,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal product event", err)
		return
	}

	if err := s.publisher.Publish(ctx, EventsSubject, data); err != nil {
		s.logger.Warnf("Failed to publish %s event: %v", eventType, err)
	}
}
