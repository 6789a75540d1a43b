package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mkravec/product-catalog/internal/domain"
)

// Key namespaces. Single entities live under productKeyPrefix, list pages
// under productPagePrefix; invalidation of list pages is coarse and removes
// the whole productPagePrefix namespace.
const (
	productKeyPrefix  = "product:"
	productPagePrefix = "products:"

	// scanBatchSize is the COUNT hint for SCAN during prefix invalidation
	scanBatchSize = 100
)

// RedisProductCache implements domain.ProductCache on Redis.
// Values are JSON snapshots bounded by a single TTL; a miss is reported
// as domain.ErrNotFound.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache creates a new Redis product cache instance
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{
		client: client,
		ttl:    ttl,
	}
}

func productKey(id uuid.UUID) string {
	return productKeyPrefix + id.String()
}

// productPageKey derives the deterministic key for a list query.
// Defaults are applied here so both code paths (reads populating the cache
// and reads probing it) derive byte-identical keys for the same logical
// query, regardless of which fields the caller left unset. User-supplied
// fields are query-escaped so the `:` and `=` delimiters stay unambiguous
// and distinct filters can never derive the same key.
func productPageKey(filter domain.ProductFilter) string {
	f := filter.Normalized()
	return fmt.Sprintf(
		"%spage=%d:limit=%d:search=%s:category=%s:sort=%s:order=%s",
		productPagePrefix,
		f.Page,
		f.Limit,
		url.QueryEscape(f.Search),
		url.QueryEscape(f.Category),
		f.SortBy,
		f.Order,
	)
}

// GetProduct retrieves a cached product
func (c *RedisProductCache) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	val, err := c.client.Get(ctx, productKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		return nil, err
	}

	return &product, nil
}

// SetProduct stores a product snapshot with the configured TTL
func (c *RedisProductCache) SetProduct(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, productKey(product.ID), data, c.ttl).Err()
}

// GetProductPage retrieves a cached list page for a filter
func (c *RedisProductCache) GetProductPage(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	val, err := c.client.Get(ctx, productPageKey(filter)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var page domain.ProductPage
	if err := json.Unmarshal([]byte(val), &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// SetProductPage stores a list page snapshot with the configured TTL
func (c *RedisProductCache) SetProductPage(ctx context.Context, filter domain.ProductFilter, page *domain.ProductPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, productPageKey(filter), data, c.ttl).Err()
}

// InvalidateProduct removes the single-entity entry for a product
func (c *RedisProductCache) InvalidateProduct(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, productKey(id)).Err()
}

// InvalidateProductPages removes every cached list page. Any write can
// change page membership and counts, so invalidation is a full sweep of
// the products: namespace rather than per-page dependency tracking.
func (c *RedisProductCache) InvalidateProductPages(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, productPagePrefix+"*", scanBatchSize).Iterator()

	keys := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Unlink(ctx, keys...).Err()
	}

	return nil
}
