package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Carts are abandoned silently; entries expire rather than being reaped.
const cartTTL = 30 * 24 * time.Hour

// Storage persists one cart per user. Implementations must treat a missing
// cart as an empty one.
type Storage interface {
	Get(ctx context.Context, userID uint) (*Cart, error)
	Set(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID uint) error
}

type redisStorage struct {
	client *redis.Client
}

func NewRedisStorage(addr string) Storage {
	return &redisStorage{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (s *redisStorage) Get(ctx context.Context, userID uint) (*Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return &Cart{UserID: userID, Items: []Line{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("failed to decode stored cart: %w", err)
	}
	return &c, nil
}

func (s *redisStorage) Set(ctx context.Context, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(c.UserID), raw, cartTTL).Err()
}

func (s *redisStorage) Clear(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

// memoryStorage backs dev runs without Redis and the test suite.
type memoryStorage struct {
	mu    sync.RWMutex
	carts map[uint]*Cart
}

func NewMemoryStorage() Storage {
	return &memoryStorage{carts: make(map[uint]*Cart)}
}

func (s *memoryStorage) Get(_ context.Context, userID uint) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return &Cart{UserID: userID, Items: []Line{}}, nil
	}

	cp := *c
	cp.Items = append([]Line(nil), c.Items...)
	return &cp, nil
}

func (s *memoryStorage) Set(_ context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	cp.Items = append([]Line(nil), c.Items...)
	s.carts[c.UserID] = &cp
	return nil
}

func (s *memoryStorage) Clear(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
