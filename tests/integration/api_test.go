//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/product-catalog/internal/config"
	"github.com/mkravec/product-catalog/internal/delivery/events"
	httpDelivery "github.com/mkravec/product-catalog/internal/delivery/http"
	"github.com/mkravec/product-catalog/internal/delivery/http/handler"
	pkgcache "github.com/mkravec/product-catalog/internal/pkg/cache"
	"github.com/mkravec/product-catalog/internal/pkg/database"
	"github.com/mkravec/product-catalog/internal/pkg/logger"
	"github.com/mkravec/product-catalog/internal/pkg/token"
	cacheRepo "github.com/mkravec/product-catalog/internal/repository/cache"
	"github.com/mkravec/product-catalog/internal/repository/postgres"
	"github.com/mkravec/product-catalog/internal/usecase/auth"
	"github.com/mkravec/product-catalog/internal/usecase/catalog"
)

type testEnv struct {
	handler http.Handler
	redis   *redis.Client
	cfg     *config.Config
}

func setupTestServer(t *testing.T) *testEnv {
	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.New(cfg.Env)

	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	redisClient, err := pkgcache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)

	publisher, err := events.NewPublisher(cfg, log)
	require.NoError(t, err)

	productRepo := postgres.NewProductRepository(db)
	userRepo := postgres.NewUserRepository(db)
	productCache := cacheRepo.NewRedisProductCache(redisClient, cfg.Cache.ProductTTL)
	tokenManager := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	catalogService := catalog.NewService(productRepo, productCache, publisher, log)
	authService := auth.NewService(userRepo, tokenManager, log)

	productHandler := handler.NewProductHandler(catalogService, log)
	authHandler := handler.NewAuthHandler(authService, log)

	router := httpDelivery.NewRouter(productHandler, authHandler, tokenManager, cfg, log)

	// Start each run from an empty cache
	require.NoError(t, redisClient.FlushDB(context.Background()).Err())

	return &testEnv{
		handler: router.Setup(),
		redis:   redisClient,
		cfg:     cfg,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}

	return rec, env
}

func (e *testEnv) registerUser(t *testing.T, name, email string) string {
	t.Helper()

	rec, env := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "integration-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)

	return session.Token
}

func TestAPI_ProductLifecycle(t *testing.T) {
	env := setupTestServer(t)
	suffix := time.Now().UnixNano()

	ownerToken := env.registerUser(t, "Owner", fmt.Sprintf("owner+%d@example.com", suffix))
	otherToken := env.registerUser(t, "Other", fmt.Sprintf("other+%d@example.com", suffix))
	category := fmt.Sprintf("Books-%d", suffix)

	// Create requires authentication
	rec, _ := env.do(t, http.MethodPost, "/api/v1/products", "", map[string]interface{}{
		"name": "Clean Architecture", "price": 99.99, "category": category,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Create
	rec, created := env.do(t, http.MethodPost, "/api/v1/products", ownerToken, map[string]interface{}{
		"name":        "Clean Architecture",
		"description": "A craftsman's guide to software structure",
		"price":       99.99,
		"category":    category,
		"stock":       5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var product struct {
		ID    string  `json:"id"`
		Price float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(created.Data, &product))
	require.NotEmpty(t, product.ID)

	// List by category contains the product
	listPath := fmt.Sprintf("/api/v1/products?category=%s", category)
	rec, listed := env.do(t, http.MethodGet, listPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Products   []struct{ Price float64 } `json:"products"`
		Pagination struct{ Total int }       `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(listed.Data, &page))
	assert.Equal(t, 1, page.Pagination.Total)
	require.Len(t, page.Products, 1)
	assert.Equal(t, 99.99, page.Products[0].Price)

	// The list entry is cached with a TTL bounded by the configured one
	ctx := context.Background()
	keys, err := env.redis.Keys(ctx, "products:*").Result()
	require.NoError(t, err)
	require.NotEmpty(t, keys)
	for _, key := range keys {
		ttl, err := env.redis.TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, env.cfg.Cache.ProductTTL)
	}

	// Point read populates the product: entry
	rec, _ = env.do(t, http.MethodGet, "/api/v1/products/"+product.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exists, err := env.redis.Exists(ctx, "product:"+product.ID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	// A non-owner cannot update
	rec, _ = env.do(t, http.MethodPut, "/api/v1/products/"+product.ID, otherToken, map[string]interface{}{
		"price": 1.0,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Owner updates the price
	rec, updated := env.do(t, http.MethodPut, "/api/v1/products/"+product.ID, ownerToken, map[string]interface{}{
		"price": 49.99,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(updated.Data, &product))
	assert.Equal(t, 49.99, product.Price)

	// The write invalidated both namespaces
	exists, err = env.redis.Exists(ctx, "product:"+product.ID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
	keys, err = env.redis.Keys(ctx, "products:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	// An immediate list read observes the new price, not the stale 99.99
	rec, listed = env.do(t, http.MethodGet, listPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(listed.Data, &page))
	require.Len(t, page.Products, 1)
	assert.Equal(t, 49.99, page.Products[0].Price)

	// Owner deletes; subsequent reads are 404
	rec, _ = env.do(t, http.MethodDelete, "/api/v1/products/"+product.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_LoginFlow(t *testing.T) {
	env := setupTestServer(t)
	email := fmt.Sprintf("login+%d@example.com", time.Now().UnixNano())
	env.registerUser(t, "Login User", email)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "integration-pass",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_EventStreamProvisioned(t *testing.T) {
	env := setupTestServer(t)

	nc, err := nats.Connect(env.cfg.NATS.URL)
	require.NoError(t, err)
	defer nc.Close()

	js, err := nc.JetStream()
	require.NoError(t, err)

	// The publisher provisions its stream on construction, so mutation
	// events always have a stream bound to their subject.
	info, err := js.StreamInfo(events.StreamName)
	require.NoError(t, err)
	assert.Contains(t, info.Config.Subjects, events.StreamSubjects)
}
