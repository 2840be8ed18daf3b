package payment

import (
	"context"
	"database/sql"
	"encoding/json"
)

type Repository interface {
	SavePayment(ctx context.Context, p *Payment) error
	MarkPaidBySession(ctx context.Context, sessionID string) error

	// SaveWebhookEvent records an incoming webhook for audit and dedupe.
	// A redelivery returns the existing row id; alreadyProcessed is true
	// only when an earlier delivery completed, so an event that failed
	// mid-processing runs again on the next retry.
	SaveWebhookEvent(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		sessionID string,
		payload json.RawMessage,
	) (webhookID int64, alreadyProcessed bool, err error)

	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SavePayment(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (order_id, session_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
	`, p.OrderID, p.SessionID, p.Amount, p.Currency, p.Status)
	return err
}

func (r *repository) MarkPaidBySession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE session_id = $2 AND status = $3
	`, StatusPaid, sessionID, StatusPending)
	return err
}

func (r *repository) SaveWebhookEvent(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	sessionID string,
	payload json.RawMessage,
) (int64, bool, error) {

	// The no-op DO UPDATE makes the conflicting row visible to RETURNING,
	// so a redelivery comes back with its id and processed state instead
	// of zero rows.
	const q = `
	INSERT INTO payment_webhooks (provider, event_id, event_type, session_id, payload)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET event_id = EXCLUDED.event_id
	RETURNING id, processed_at IS NOT NULL;
	`

	var id int64
	var processed bool
	err := r.db.QueryRowContext(ctx, q, provider, eventID, eventType, sessionID, payload).Scan(&id, &processed)
	if err != nil {
		return 0, false, err
	}

	return id, processed, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks
		SET processed_at = NOW(), process_error = NULL
		WHERE id = $1
	`, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks
		SET process_error = $2
		WHERE id = $1
	`, webhookID, reason)
	return err
}
