package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) FetchProducts(ctx context.Context, opts QueryOptions) (*ProductList, error) {
	args := m.Called(ctx, opts)
	if v := args.Get(0); v != nil {
		return v.(*ProductList), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) FetchProduct(ctx context.Context, id string) (*Product, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) FetchCategories(ctx context.Context) ([]Category, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestService_ListProducts_CachesUpstream(t *testing.T) {
	ctx := context.Background()
	client := new(MockClient)
	svc := NewService(client, NewMemoryCache("catalog-test"))

	opts := QueryOptions{Search: "phone", Limit: 10}
	normalized := opts
	normalized.Normalize()

	list := &ProductList{
		Products: []Product{{ID: "1", Title: "Phone", Price: 549.99}},
		Total:    1, Limit: 10, Skip: 0,
	}
	client.On("FetchProducts", mock.Anything, normalized).Return(list, nil).Once()

	first, err := svc.ListProducts(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, list.Products, first.Products)

	// Second identical query must be served from cache.
	second, err := svc.ListProducts(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Products, second.Products)
	client.AssertNumberOfCalls(t, "FetchProducts", 1)
}

func TestService_ListProducts_DistinctQueriesMiss(t *testing.T) {
	ctx := context.Background()
	client := new(MockClient)
	svc := NewService(client, NewMemoryCache("catalog-test"))

	client.On("FetchProducts", mock.Anything, mock.Anything).Return(&ProductList{}, nil)

	_, err := svc.ListProducts(ctx, QueryOptions{Search: "phone"})
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, QueryOptions{Category: "laptops"})
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "FetchProducts", 2)
}

func TestService_ListProducts_UpstreamError(t *testing.T) {
	client := new(MockClient)
	svc := NewService(client, NewMemoryCache("catalog-test"))

	client.On("FetchProducts", mock.Anything, mock.Anything).Return(nil, errors.New("upstream down"))

	_, err := svc.ListProducts(context.Background(), QueryOptions{})
	assert.Error(t, err)
}

func TestService_GetProduct_Cached(t *testing.T) {
	ctx := context.Background()
	client := new(MockClient)
	svc := NewService(client, NewMemoryCache("catalog-test"))

	p := &Product{ID: "7", Title: "Lamp", Price: 12.5}
	client.On("FetchProduct", mock.Anything, "7").Return(p, nil).Once()

	got, err := svc.GetProduct(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Title)

	got, err = svc.GetProduct(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Title)
	client.AssertNumberOfCalls(t, "FetchProduct", 1)
}

func TestService_ListCategories_Cached(t *testing.T) {
	ctx := context.Background()
	client := new(MockClient)
	svc := NewService(client, NewMemoryCache("catalog-test"))

	categories := []Category{{ID: "smartphones", Name: "smartphones", Slug: "smartphones"}}
	client.On("FetchCategories", mock.Anything).Return(categories, nil).Once()

	first, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	second, err := svc.ListCategories(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	client.AssertNumberOfCalls(t, "FetchCategories", 1)
}
