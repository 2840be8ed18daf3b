package order

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrdersByUser(ctx context.Context, userID uint) ([]*Order, error)
	GetOrderStatus(ctx context.Context, orderID uint) (OrderStatus, error)

	// MarkPaidBySession performs the one concurrency-sensitive write in the
	// system: a conditional pending → paid update keyed by the session id.
	MarkPaidBySession(ctx context.Context, sessionID string) (*Transition, error)

	// UpdateStatusIf transitions orderID from → to and reports whether a
	// row changed, guarding against a concurrent writer.
	UpdateStatusIf(ctx context.Context, orderID uint, from, to OrderStatus) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOrder(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("external_id", o.ExternalID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	var sessionID any
	if o.CheckoutSessionID != "" {
		sessionID = o.CheckoutSessionID
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (external_id, user_id, checkout_session_id, total_amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, o.ExternalID, o.UserID, sessionID, o.TotalAmount, o.Currency, o.Status).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, title, quantity, price, thumbnail)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, o.ID, item.ProductID, item.Title, item.Quantity, item.Price, item.Thumbnail).
			Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	return nil
}

func (r *repository) GetOrdersByUser(ctx context.Context, userID uint) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, external_id, user_id, checkout_session_id, total_amount, currency, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	byID := make(map[uint]*Order)
	var ids []int64

	for rows.Next() {
		var o Order
		var sessionID sql.NullString
		if err := rows.Scan(
			&o.ID, &o.ExternalID, &o.UserID, &sessionID,
			&o.TotalAmount, &o.Currency, &o.Status,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		o.CheckoutSessionID = sessionID.String
		o.Items = []OrderItem{}

		orders = append(orders, &o)
		byID[o.ID] = &o
		ids = append(ids, int64(o.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, title, quantity, price, thumbnail
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		if err := itemRows.Scan(
			&item.ID, &item.OrderID, &item.ProductID,
			&item.Title, &item.Quantity, &item.Price, &item.Thumbnail,
		); err != nil {
			return nil, err
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *repository) GetOrderStatus(ctx context.Context, orderID uint) (OrderStatus, error) {
	var status OrderStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = $1
	`, orderID).Scan(&status)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *repository) MarkPaidBySession(ctx context.Context, sessionID string) (*Transition, error) {
	var t Transition
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE checkout_session_id = $2
		  AND status = $3
		RETURNING id, user_id
	`, StatusPaid, sessionID, StatusPending).
		Scan(&t.OrderID, &t.UserID)

	if err == nil {
		t.Transitioned = true
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// No row changed: either the session is unknown or the order already
	// left pending. A redelivery lands here and stays a no-op.
	err = r.db.QueryRowContext(ctx, `
		SELECT id, user_id FROM orders WHERE checkout_session_id = $1
	`, sessionID).
		Scan(&t.OrderID, &t.UserID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Transitioned = false
	return &t, nil
}

func (r *repository) UpdateStatusIf(ctx context.Context, orderID uint, from, to OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, orderID, from)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
