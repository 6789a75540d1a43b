package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkravec/product-catalog/internal/domain"
)

// sortColumns whitelists the API sort fields against column names.
// Anything else falls back to created_at before the query is built.
var sortColumns = map[string]string{
	domain.SortByName:      "p.name",
	domain.SortByPrice:     "p.price",
	domain.SortByCategory:  "p.category",
	domain.SortByCreatedAt: "p.created_at",
	domain.SortByUpdatedAt: "p.updated_at",
}

// productRow is a product joined with its owner summary
type productRow struct {
	domain.Product
	OwnerName  string `db:"owner_name"`
	OwnerEmail string `db:"owner_email"`
}

func (r *productRow) toDomain() *domain.Product {
	p := r.Product
	p.Owner = &domain.UserSummary{
		ID:    p.OwnerID,
		Name:  r.OwnerName,
		Email: r.OwnerEmail,
	}
	return &p
}

const productSelectColumns = `
	p.id, p.name, p.description, p.price, p.category, p.stock,
	p.owner_id, p.created_at, p.updated_at,
	u.name AS owner_name, u.email AS owner_email
`

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, category, stock, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Stock,
		product.OwnerID,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(
		&product.ID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a product by ID with its owner summary
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1
	`, productSelectColumns)

	var row productRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// buildFilterClause builds the WHERE clause and args for a normalized filter
func buildFilterClause(filter domain.ProductFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, filter.Search)
		conditions = append(conditions, fmt.Sprintf(
			"to_tsvector('english', p.name || ' ' || p.description) @@ plainto_tsquery('english', $%d)",
			len(args),
		))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves products matching a normalized filter
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	where, args := buildFilterClause(filter)

	orderCol, ok := sortColumns[filter.SortBy]
	if !ok {
		orderCol = sortColumns[domain.DefaultSortBy]
	}
	direction := "DESC"
	if filter.Order == domain.OrderAsc {
		direction = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN users u ON u.id = p.owner_id
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productSelectColumns, where, orderCol, direction, len(args)-1, len(args))

	var rows []*productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}

	return products, nil
}

// Count returns the number of products matching a normalized filter
func (r *ProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	where, args := buildFilterClause(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM products p %s`, where)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}

	return count, nil
}

// Update applies a partial update and returns the new state with owner summary.
// Unset fields keep their stored values; owner_id is never touched.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	query := fmt.Sprintf(`
		UPDATE products p
		SET name        = COALESCE($1, p.name),
		    description = COALESCE($2, p.description),
		    price       = COALESCE($3, p.price),
		    category    = COALESCE($4, p.category),
		    stock       = COALESCE($5, p.stock),
		    updated_at  = $6
		FROM users u
		WHERE p.id = $7 AND u.id = p.owner_id
		RETURNING %s
	`, productSelectColumns)

	var row productRow
	err := r.db.GetContext(
		ctx,
		&row,
		query,
		update.Name,
		update.Description,
		update.Price,
		update.Category,
		update.Stock,
		time.Now(),
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
