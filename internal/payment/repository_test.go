package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SavePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(uint(1), "cs_test_123", int64(2500), "usd", StatusPending).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.SavePayment(context.Background(), &Payment{
		OrderID:   1,
		SessionID: "cs_test_123",
		Amount:    2500,
		Currency:  "usd",
		Status:    StatusPending,
	})
	assert.NoError(t, err)
}

func TestRepository_MarkPaidBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE payments SET status = \$1, updated_at = NOW\(\) WHERE session_id = \$2 AND status = \$3`).
		WithArgs(StatusPaid, "cs_test_123", StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkPaidBySession(context.Background(), "cs_test_123"))
}

func TestRepository_SaveWebhookEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	payload := json.RawMessage(`{"id":"evt_1"}`)

	t.Run("FirstDelivery", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WithArgs("STRIPE", "evt_1", EventCheckoutSessionCompleted, "cs_test_123", payload).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(int64(5), false))

		id, processed, err := repo.SaveWebhookEvent(context.Background(),
			"STRIPE", "evt_1", EventCheckoutSessionCompleted, "cs_test_123", payload)
		require.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(5), id)
	})

	t.Run("RedeliveryOfProcessedEvent", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(int64(5), true))

		id, processed, err := repo.SaveWebhookEvent(context.Background(),
			"STRIPE", "evt_1", EventCheckoutSessionCompleted, "cs_test_123", payload)
		require.NoError(t, err)
		assert.True(t, processed)
		assert.Equal(t, int64(5), id)
	})

	t.Run("RedeliveryOfFailedEvent", func(t *testing.T) {
		// The conflicting row exists but was never processed; the caller
		// gets its id back and retries the transition.
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(int64(5), false))

		id, processed, err := repo.SaveWebhookEvent(context.Background(),
			"STRIPE", "evt_1", EventCheckoutSessionCompleted, "cs_test_123", payload)
		require.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(5), id)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnError(errors.New("db down"))

		_, _, err := repo.SaveWebhookEvent(context.Background(),
			"STRIPE", "evt_1", EventCheckoutSessionCompleted, "cs_test_123", payload)
		assert.Error(t, err)
	})
}

func TestRepository_MarkWebhookProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE payment_webhooks SET processed_at = NOW\(\), process_error = NULL WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkWebhookProcessed(context.Background(), 5))
}

func TestRepository_MarkWebhookFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE payment_webhooks SET process_error = \$2 WHERE id = \$1`).
		WithArgs(int64(5), "order lookup failed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkWebhookFailed(context.Background(), 5, "order lookup failed"))
}
