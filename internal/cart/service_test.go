package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ReplaceAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStorage())

	items := []Line{
		{ProductID: "1", Title: "Phone", Price: 10.00, Quantity: 2},
		{ProductID: "2", Title: "Case", Price: 5.00, Quantity: 1},
	}

	c, err := svc.Replace(ctx, 7, items)
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.UserID)
	assert.InDelta(t, 25.00, c.Subtotal(), 1e-9)

	got, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, items, got.Items)
}

func TestService_Get_MissingCartIsEmpty(t *testing.T) {
	svc := NewService(NewMemoryStorage())

	c, err := svc.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)
}

func TestService_Replace_RejectsInvalidLines(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStorage())

	_, err := svc.Replace(ctx, 7, []Line{{ProductID: "1", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.Replace(ctx, 7, []Line{{ProductID: "", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestService_Replace_EmptyMeansEmptyCart(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStorage())

	c, err := svc.Replace(ctx, 7, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStorage())

	_, err := svc.Replace(ctx, 7, []Line{{ProductID: "1", Price: 1, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 7))

	c, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestMemoryStorage_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	original := &Cart{UserID: 1, Items: []Line{{ProductID: "1", Price: 2, Quantity: 1}}}
	require.NoError(t, store.Set(ctx, original))

	// Mutating the caller's slice must not leak into storage.
	original.Items[0].Quantity = 99

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
}
