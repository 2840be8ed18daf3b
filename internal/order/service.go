package order

import (
	"context"
	"errors"
	"fmt"

	"storefront-be/internal/catalog"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Checkout verifies the submitted cart against the catalog, creates a
	// hosted payment session, and persists a pending order carrying the
	// session id. Returns the session id for the client redirect.
	Checkout(ctx context.Context, userID uint, input CheckoutInput) (string, error)

	// CreateDirect persists a pending order without a payment session
	// (manual and admin flows).
	CreateDirect(ctx context.Context, userID uint, input CheckoutInput) (*Order, error)

	GetOrders(ctx context.Context, userID uint) ([]*Order, error)

	// MarkPaidBySession drives the pending → paid transition for the order
	// matching the session id. ErrOrderNotFound means no such session.
	MarkPaidBySession(ctx context.Context, sessionID string) (*Transition, error)

	// UpdateStatus applies a forward-only manual transition.
	UpdateStatus(ctx context.Context, orderID uint, to OrderStatus) error
}

type service struct {
	repo    Repository
	catalog catalog.Service
	gateway payment.Gateway
	payRepo payment.Repository
}

func NewService(repo Repository, catalogSvc catalog.Service, gateway payment.Gateway, payRepo payment.Repository) Service {
	return &service{
		repo:    repo,
		catalog: catalogSvc,
		gateway: gateway,
		payRepo: payRepo,
	}
}

// buildItems validates the submitted lines against the catalog and returns
// the order snapshot plus the total in minor units. Client-submitted prices
// are never trusted on their own: each must match the catalog price to the
// cent, and the claimed total must match the recomputed sum.
func (s *service) buildItems(ctx context.Context, input CheckoutInput) ([]OrderItem, int64, error) {
	if len(input.Products) == 0 || input.TotalAmount <= 0 {
		return nil, 0, ErrMissingFields
	}

	items := make([]OrderItem, 0, len(input.Products))
	var totalMinor int64

	for i, line := range input.Products {
		if line.Quantity < 1 {
			return nil, 0, fmt.Errorf("line %d: %w", i, ErrInvalidQuantity)
		}

		p, err := s.catalog.GetProduct(ctx, line.Product.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, 0, fmt.Errorf("line %d: product %s: %w", i, line.Product.ID, ErrPriceMismatch)
			}
			return nil, 0, fmt.Errorf("failed to verify product %s: %w", line.Product.ID, err)
		}

		if !utils.SameAmount(line.Price, p.Price) {
			return nil, 0, fmt.Errorf("line %d: product %s: %w", i, line.Product.ID, ErrPriceMismatch)
		}

		totalMinor += utils.ToMinorUnits(line.Price) * int64(line.Quantity)

		items = append(items, OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Thumbnail: p.Thumbnail,
		})
	}

	if totalMinor != utils.ToMinorUnits(input.TotalAmount) {
		return nil, 0, ErrTotalMismatch
	}

	return items, totalMinor, nil
}

func (s *service) Checkout(ctx context.Context, userID uint, input CheckoutInput) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", userID),
		zap.Int("item_count", len(input.Products)),
	)

	items, totalMinor, err := s.buildItems(ctx, input)
	if err != nil {
		log.Warn("checkout rejected", zap.Error(err))
		return "", err
	}

	payItems := make([]payment.LineItem, 0, len(items))
	for _, item := range items {
		payItems = append(payItems, payment.LineItem{
			Name:       item.Title,
			ImageURL:   item.Thumbnail,
			UnitAmount: utils.ToMinorUnits(item.Price),
			Quantity:   item.Quantity,
		})
	}

	externalID := uuid.New().String()

	session, err := s.gateway.CreateCheckoutSession(ctx, externalID, payItems)
	if err != nil {
		log.Error("failed to create payment session", zap.Error(err))
		return "", fmt.Errorf("failed to create payment session: %w", err)
	}

	o := &Order{
		ExternalID:        externalID,
		UserID:            userID,
		Items:             items,
		TotalAmount:       input.TotalAmount,
		Currency:          "usd",
		CheckoutSessionID: session.ID,
		Status:            StatusPending,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return "", fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.payRepo.SavePayment(ctx, &payment.Payment{
		OrderID:   o.ID,
		SessionID: session.ID,
		Amount:    totalMinor,
		Currency:  "usd",
		Status:    payment.StatusPending,
	}); err != nil {
		log.Error("failed to save payment record", zap.Error(err))
		return "", fmt.Errorf("failed to save payment record: %w", err)
	}

	log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Uint("order_id", o.ID),
		zap.Int64("total_minor", totalMinor),
	)

	return session.ID, nil
}

func (s *service) CreateDirect(ctx context.Context, userID uint, input CheckoutInput) (*Order, error) {
	items, _, err := s.buildItems(ctx, input)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ExternalID:  uuid.New().String(),
		UserID:      userID,
		Items:       items,
		TotalAmount: input.TotalAmount,
		Currency:    "usd",
		Status:      StatusPending,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	return o, nil
}

// GetOrders returns the caller's orders with the live catalog record joined
// onto each line. The join is best-effort; the stored snapshot is the
// source of truth for amounts.
func (s *service) GetOrders(ctx context.Context, userID uint) ([]*Order, error) {
	orders, err := s.repo.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		for i := range o.Items {
			p, err := s.catalog.GetProduct(ctx, o.Items[i].ProductID)
			if err != nil {
				logger.FromCtx(ctx).Debug("live product join skipped",
					zap.String("product_id", o.Items[i].ProductID),
					zap.Error(err),
				)
				continue
			}
			o.Items[i].Product = p
		}
	}

	return orders, nil
}

func (s *service) MarkPaidBySession(ctx context.Context, sessionID string) (*Transition, error) {
	t, err := s.repo.MarkPaidBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("session_id", sessionID),
		zap.Uint("order_id", t.OrderID),
	)

	if !t.Transitioned {
		log.Info("order already past pending, webhook is a no-op")
		return t, nil
	}

	if err := s.payRepo.MarkPaidBySession(ctx, sessionID); err != nil {
		// The order transition already committed; the payment row is
		// bookkeeping and must not fail the acknowledgment.
		log.Error("failed to mark payment record paid", zap.Error(err))
	}

	log.Info("order marked as paid")
	return t, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uint, to OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("status %q: %w", to, ErrInvalidTransition)
	}

	current, err := s.repo.GetOrderStatus(ctx, orderID)
	if err != nil {
		return err
	}

	if !CanTransition(current, to) {
		return fmt.Errorf("%s -> %s: %w", current, to, ErrInvalidTransition)
	}

	ok, err := s.repo.UpdateStatusIf(ctx, orderID, current, to)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent writer moved the order first.
		return fmt.Errorf("%s -> %s: %w", current, to, ErrInvalidTransition)
	}

	return nil
}
