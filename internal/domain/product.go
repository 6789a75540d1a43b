package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// Sort fields accepted by product list queries.
const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByCategory  = "category"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Defaults applied to product list queries before querying and before
// cache key derivation, so identical logical queries share one key.
const (
	DefaultPage   = 1
	DefaultLimit  = 10
	DefaultSortBy = SortByCreatedAt
	DefaultOrder  = OrderDesc
)

// Product represents a catalog item
type Product struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Name        string       `json:"name" db:"name" validate:"required,min=1,max=255"`
	Description string       `json:"description" db:"description"`
	Price       float64      `json:"price" db:"price" validate:"gte=0"`
	Category    string       `json:"category" db:"category" validate:"required,min=1,max=100"`
	Stock       int          `json:"stock" db:"stock" validate:"gte=0"`
	OwnerID     uuid.UUID    `json:"owner_id" db:"owner_id"`
	Owner       *UserSummary `json:"owner,omitempty" db:"-"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// ProductUpdate holds a partial update; nil fields are left unchanged.
// Owner and ID are immutable and deliberately absent.
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// ProductFilter describes a product list query
type ProductFilter struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	SortBy   string `json:"sortBy"`
	Order    string `json:"order"`
}

// Normalized returns a copy of the filter with defaults applied.
// Both the repository and the cache key derivation work on normalized
// filters so that semantically equal queries are byte-identical.
func (f ProductFilter) Normalized() ProductFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	switch f.SortBy {
	case SortByName, SortByPrice, SortByCategory, SortByCreatedAt, SortByUpdatedAt:
	default:
		f.SortBy = DefaultSortBy
	}
	switch f.Order {
	case OrderAsc, OrderDesc:
	default:
		f.Order = DefaultOrder
	}
	return f
}

// Offset returns the number of rows to skip for the current page
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes the position of a page within the full result set
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// ProductPage is one page of products matching a filter
type ProductPage struct {
	Products   []*Product `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// NewProductPage assembles a page with derived pagination metadata
func NewProductPage(products []*Product, total int, filter ProductFilter) *ProductPage {
	pages := 0
	if filter.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}
	return &ProductPage{
		Products: products,
		Pagination: Pagination{
			Total: total,
			Page:  filter.Page,
			Pages: pages,
		},
	}
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// Create inserts a new product and fills in generated fields
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID with its owner summary
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List retrieves products matching a normalized filter
	List(ctx context.Context, filter ProductFilter) ([]*Product, error)

	// Count returns the number of products matching a normalized filter
	Count(ctx context.Context, filter ProductFilter) (int, error)

	// Update applies a partial update and returns the new state
	Update(ctx context.Context, id uuid.UUID, update ProductUpdate) (*Product, error)

	// Delete removes a product
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductCache defines the read-through cache contract for products.
// Implementations return ErrNotFound on a miss; callers treat any other
// error as a miss as well, so a dead cache degrades to direct store reads.
type ProductCache interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	SetProduct(ctx context.Context, product *Product) error

	GetProductPage(ctx context.Context, filter ProductFilter) (*ProductPage, error)
	SetProductPage(ctx context.Context, filter ProductFilter, page *ProductPage) error

	// InvalidateProduct removes the single-entity entry for id
	InvalidateProduct(ctx context.Context, id uuid.UUID) error

	// InvalidateProductPages removes every cached list page
	InvalidateProductPages(ctx context.Context) error
}
