package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// cacheTTL bounds upstream load; stale entries simply expire.
const cacheTTL = 60 * time.Second

type Service interface {
	ListProducts(ctx context.Context, opts QueryOptions) (*ProductList, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type service struct {
	client Client
	cache  Cache
}

func NewService(client Client, cache Cache) Service {
	return &service{client: client, cache: cache}
}

func (s *service) ListProducts(ctx context.Context, opts QueryOptions) (*ProductList, error) {
	opts.Normalize()

	key := s.cache.GenerateKey("products", fmt.Sprintf("q=%s|c=%s|l=%d|s=%d",
		opts.Search, opts.Category, opts.Limit, opts.Skip))

	var list ProductList
	if hit := s.cacheLookup(ctx, key, &list); hit {
		return &list, nil
	}

	fresh, err := s.client.FetchProducts(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.cacheStore(ctx, key, fresh)
	return fresh, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	key := s.cache.GenerateKey("product", id)

	var p Product
	if hit := s.cacheLookup(ctx, key, &p); hit {
		return &p, nil
	}

	fresh, err := s.client.FetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheStore(ctx, key, fresh)
	return fresh, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	key := s.cache.GenerateKey("categories", "all")

	var categories []Category
	if hit := s.cacheLookup(ctx, key, &categories); hit {
		return categories, nil
	}

	fresh, err := s.client.FetchCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheStore(ctx, key, fresh)
	return fresh, nil
}

// cacheLookup is best-effort: a cache failure falls through to the upstream.
func (s *service) cacheLookup(ctx context.Context, key string, v any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.FromCtx(ctx).Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logger.FromCtx(ctx).Warn("catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *service) cacheStore(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), cacheTTL); err != nil {
		logger.FromCtx(ctx).Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
