package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront-be/internal/catalog"
	"storefront-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil {
		o.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) GetOrdersByUser(ctx context.Context, userID uint) ([]*Order, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetOrderStatus(ctx context.Context, orderID uint) (OrderStatus, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(OrderStatus), args.Error(1)
}

func (m *MockRepository) MarkPaidBySession(ctx context.Context, sessionID string) (*Transition, error) {
	args := m.Called(ctx, sessionID)
	if v := args.Get(0); v != nil {
		return v.(*Transition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) UpdateStatusIf(ctx context.Context, orderID uint, from, to OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListProducts(ctx context.Context, opts catalog.QueryOptions) (*catalog.ProductList, error) {
	args := m.Called(ctx, opts)
	if v := args.Get(0); v != nil {
		return v.(*catalog.ProductList), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*catalog.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]catalog.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, referenceID string, items []payment.LineItem) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, referenceID, items)
	if v := args.Get(0); v != nil {
		return v.(*payment.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) VerifySignature(payload []byte, sigHeader string) error {
	args := m.Called(payload, sigHeader)
	return args.Error(0)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) SavePayment(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepo) MarkPaidBySession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockPaymentRepo) SaveWebhookEvent(ctx context.Context, provider, eventID, eventType, sessionID string, payload json.RawMessage) (int64, bool, error) {
	args := m.Called(ctx, provider, eventID, eventType, sessionID, payload)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepo) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	args := m.Called(ctx, webhookID)
	return args.Error(0)
}

func (m *MockPaymentRepo) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	args := m.Called(ctx, webhookID, reason)
	return args.Error(0)
}

func newTestService() (*MockRepository, *MockCatalog, *MockGateway, *MockPaymentRepo, Service) {
	repo := new(MockRepository)
	cat := new(MockCatalog)
	gw := new(MockGateway)
	payRepo := new(MockPaymentRepo)
	return repo, cat, gw, payRepo, NewService(repo, cat, gw, payRepo)
}

func twoLineCart() CheckoutInput {
	return CheckoutInput{
		Products: []CheckoutLine{
			{Product: ProductSnapshot{ID: "1", Title: "Phone", Price: 10.00}, Quantity: 2, Price: 10.00},
			{Product: ProductSnapshot{ID: "2", Title: "Case", Price: 5.00}, Quantity: 1, Price: 5.00},
		},
		TotalAmount: 25.00,
	}
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, cat, gw, payRepo, svc := newTestService()

		cat.On("GetProduct", mock.Anything, "1").
			Return(&catalog.Product{ID: "1", Title: "Phone", Price: 10.00, Thumbnail: "p.png"}, nil)
		cat.On("GetProduct", mock.Anything, "2").
			Return(&catalog.Product{ID: "2", Title: "Case", Price: 5.00, Thumbnail: "c.png"}, nil)

		gw.On("CreateCheckoutSession", mock.Anything, mock.Anything, mock.MatchedBy(func(items []payment.LineItem) bool {
			return len(items) == 2 &&
				items[0].UnitAmount == 1000 && items[0].Quantity == 2 &&
				items[1].UnitAmount == 500 && items[1].Quantity == 1
		})).Return(&payment.CheckoutSession{ID: "cs_test_123"}, nil)

		repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *Order) bool {
			return o.Status == StatusPending &&
				o.CheckoutSessionID == "cs_test_123" &&
				o.TotalAmount == 25.00 &&
				len(o.Items) == 2 &&
				o.Items[0].Quantity == 2 && o.Items[0].Price == 10.00 &&
				o.Items[1].Quantity == 1 && o.Items[1].Price == 5.00
		})).Return(nil)

		payRepo.On("SavePayment", mock.Anything, mock.MatchedBy(func(p *payment.Payment) bool {
			return p.SessionID == "cs_test_123" && p.Amount == 2500 && p.Status == payment.StatusPending
		})).Return(nil)

		sessionID, err := svc.Checkout(ctx, 7, twoLineCart())
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", sessionID)

		repo.AssertExpectations(t)
		gw.AssertExpectations(t)
		payRepo.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, _, gw, _, svc := newTestService()

		_, err := svc.Checkout(ctx, 7, CheckoutInput{})
		assert.ErrorIs(t, err, ErrMissingFields)

		_, err = svc.Checkout(ctx, 7, CheckoutInput{Products: twoLineCart().Products})
		assert.ErrorIs(t, err, ErrMissingFields)

		gw.AssertNotCalled(t, "CreateCheckoutSession")
	})

	t.Run("ZeroQuantity", func(t *testing.T) {
		_, _, _, _, svc := newTestService()

		input := twoLineCart()
		input.Products[0].Quantity = 0

		_, err := svc.Checkout(ctx, 7, input)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("PriceMismatchRejected", func(t *testing.T) {
		repo, cat, gw, _, svc := newTestService()

		// The catalog says the phone costs more than the client claims.
		cat.On("GetProduct", mock.Anything, "1").
			Return(&catalog.Product{ID: "1", Title: "Phone", Price: 549.99}, nil)

		_, err := svc.Checkout(ctx, 7, twoLineCart())
		assert.ErrorIs(t, err, ErrPriceMismatch)

		gw.AssertNotCalled(t, "CreateCheckoutSession")
		repo.AssertNotCalled(t, "CreateOrder")
	})

	t.Run("UnknownProductRejected", func(t *testing.T) {
		_, cat, gw, _, svc := newTestService()

		cat.On("GetProduct", mock.Anything, "1").Return(nil, catalog.ErrProductNotFound)

		_, err := svc.Checkout(ctx, 7, twoLineCart())
		assert.ErrorIs(t, err, ErrPriceMismatch)
		gw.AssertNotCalled(t, "CreateCheckoutSession")
	})

	t.Run("TotalMismatchRejected", func(t *testing.T) {
		_, cat, gw, _, svc := newTestService()

		cat.On("GetProduct", mock.Anything, "1").
			Return(&catalog.Product{ID: "1", Title: "Phone", Price: 10.00}, nil)
		cat.On("GetProduct", mock.Anything, "2").
			Return(&catalog.Product{ID: "2", Title: "Case", Price: 5.00}, nil)

		input := twoLineCart()
		input.TotalAmount = 20.00

		_, err := svc.Checkout(ctx, 7, input)
		assert.ErrorIs(t, err, ErrTotalMismatch)
		gw.AssertNotCalled(t, "CreateCheckoutSession")
	})

	t.Run("GatewayError", func(t *testing.T) {
		repo, cat, gw, _, svc := newTestService()

		cat.On("GetProduct", mock.Anything, "1").
			Return(&catalog.Product{ID: "1", Title: "Phone", Price: 10.00}, nil)
		cat.On("GetProduct", mock.Anything, "2").
			Return(&catalog.Product{ID: "2", Title: "Case", Price: 5.00}, nil)
		gw.On("CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("processor down"))

		_, err := svc.Checkout(ctx, 7, twoLineCart())
		assert.Error(t, err)
		assert.False(t, IsValidationError(err))
		repo.AssertNotCalled(t, "CreateOrder")
	})

	t.Run("CatalogUpstreamError", func(t *testing.T) {
		_, cat, _, _, svc := newTestService()

		cat.On("GetProduct", mock.Anything, "1").Return(nil, errors.New("upstream down"))

		_, err := svc.Checkout(ctx, 7, twoLineCart())
		assert.Error(t, err)
		assert.False(t, IsValidationError(err))
	})
}

func TestService_CreateDirect(t *testing.T) {
	ctx := context.Background()
	repo, cat, gw, _, svc := newTestService()

	cat.On("GetProduct", mock.Anything, "1").
		Return(&catalog.Product{ID: "1", Title: "Phone", Price: 10.00}, nil)
	cat.On("GetProduct", mock.Anything, "2").
		Return(&catalog.Product{ID: "2", Title: "Case", Price: 5.00}, nil)
	repo.On("CreateOrder", mock.Anything, mock.Anything).Return(nil)

	o, err := svc.CreateDirect(ctx, 7, twoLineCart())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Empty(t, o.CheckoutSessionID)
	assert.Equal(t, 25.00, o.TotalAmount)

	// No payment session for direct orders.
	gw.AssertNotCalled(t, "CreateCheckoutSession")
}

func TestService_GetOrders_JoinsLiveProducts(t *testing.T) {
	ctx := context.Background()
	repo, cat, _, _, svc := newTestService()

	stored := []*Order{{
		ID: 1, UserID: 7, TotalAmount: 25.00, Status: StatusPaid,
		Items: []OrderItem{
			{ProductID: "1", Title: "Phone", Price: 10.00, Quantity: 2},
			{ProductID: "2", Title: "Case", Price: 5.00, Quantity: 1},
		},
	}}
	repo.On("GetOrdersByUser", mock.Anything, uint(7)).Return(stored, nil)

	// The live price has drifted; the stored snapshot must be untouched.
	cat.On("GetProduct", mock.Anything, "1").
		Return(&catalog.Product{ID: "1", Title: "Phone", Price: 12.00}, nil)
	cat.On("GetProduct", mock.Anything, "2").Return(nil, errors.New("upstream down"))

	orders, err := svc.GetOrders(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	items := orders[0].Items
	require.NotNil(t, items[0].Product)
	assert.Equal(t, 12.00, items[0].Product.Price)
	assert.Equal(t, 10.00, items[0].Price)

	// Failed join leaves the snapshot-only line intact.
	assert.Nil(t, items[1].Product)
	assert.Equal(t, 5.00, items[1].Price)
}

func TestService_MarkPaidBySession(t *testing.T) {
	ctx := context.Background()

	t.Run("Transitioned", func(t *testing.T) {
		repo, _, _, payRepo, svc := newTestService()

		repo.On("MarkPaidBySession", mock.Anything, "cs_test_123").
			Return(&Transition{OrderID: 1, UserID: 7, Transitioned: true}, nil)
		payRepo.On("MarkPaidBySession", mock.Anything, "cs_test_123").Return(nil)

		tr, err := svc.MarkPaidBySession(ctx, "cs_test_123")
		require.NoError(t, err)
		assert.True(t, tr.Transitioned)
		payRepo.AssertExpectations(t)
	})

	t.Run("AlreadyPaidIsNoOp", func(t *testing.T) {
		repo, _, _, payRepo, svc := newTestService()

		repo.On("MarkPaidBySession", mock.Anything, "cs_test_123").
			Return(&Transition{OrderID: 1, UserID: 7, Transitioned: false}, nil)

		tr, err := svc.MarkPaidBySession(ctx, "cs_test_123")
		require.NoError(t, err)
		assert.False(t, tr.Transitioned)
		payRepo.AssertNotCalled(t, "MarkPaidBySession")
	})

	t.Run("UnknownSession", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		repo.On("MarkPaidBySession", mock.Anything, "cs_ghost").
			Return(nil, ErrOrderNotFound)

		_, err := svc.MarkPaidBySession(ctx, "cs_ghost")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("ForwardTransition", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		repo.On("GetOrderStatus", mock.Anything, uint(1)).Return(StatusPaid, nil)
		repo.On("UpdateStatusIf", mock.Anything, uint(1), StatusPaid, StatusShipped).Return(true, nil)

		assert.NoError(t, svc.UpdateStatus(ctx, 1, StatusShipped))
	})

	t.Run("ReverseRejected", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		repo.On("GetOrderStatus", mock.Anything, uint(1)).Return(StatusShipped, nil)

		err := svc.UpdateStatus(ctx, 1, StatusPaid)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		repo.AssertNotCalled(t, "UpdateStatusIf")
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		err := svc.UpdateStatus(ctx, 1, "cancelled")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		repo.AssertNotCalled(t, "GetOrderStatus")
	})

	t.Run("ConcurrentWriterRejected", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		repo.On("GetOrderStatus", mock.Anything, uint(1)).Return(StatusPaid, nil)
		repo.On("UpdateStatusIf", mock.Anything, uint(1), StatusPaid, StatusShipped).Return(false, nil)

		err := svc.UpdateStatus(ctx, 1, StatusShipped)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}
