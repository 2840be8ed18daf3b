package cart

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

var ErrInvalidLine = errors.New("cart line must have a product id and quantity of at least 1")

type Service interface {
	Get(ctx context.Context, userID uint) (*Cart, error)
	Replace(ctx context.Context, userID uint, items []Line) (*Cart, error)
	Clear(ctx context.Context, userID uint) error
}

type service struct {
	storage Storage
}

func NewService(storage Storage) Service {
	return &service{storage: storage}
}

func (s *service) Get(ctx context.Context, userID uint) (*Cart, error) {
	return s.storage.Get(ctx, userID)
}

// Replace swaps the whole cart for the submitted lines. The client owns the
// cart contents; the server only enforces line shape.
func (s *service) Replace(ctx context.Context, userID uint, items []Line) (*Cart, error) {
	for _, l := range items {
		if l.ProductID == "" || l.Quantity < 1 {
			return nil, ErrInvalidLine
		}
	}

	c := &Cart{
		UserID:    userID,
		Items:     items,
		UpdatedAt: time.Now(),
	}
	if c.Items == nil {
		c.Items = []Line{}
	}

	if err := s.storage.Set(ctx, c); err != nil {
		logger.FromCtx(ctx).Error("failed to store cart",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	return c, nil
}

func (s *service) Clear(ctx context.Context, userID uint) error {
	return s.storage.Clear(ctx, userID)
}
