package http_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
	handler "github.com/vasiliy-maslov/soap-shop/internal/handler/http"
)

var lavande = &catalog.Product{ID: "6f1d2c84-2b1e-4c8a-9a61-0b7c5d0e1a01", Name: "Savon Lavande", Price: 8.95, Image: "/img/lavande.jpg", Stock: 42}

func TestHealth(t *testing.T) {
	rr := newTestServer(t).do(t, http.MethodGet, "/health", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestCartHandler_Flow(t *testing.T) {
	s := newTestServer(t)
	s.products.On("GetProduct", mock.Anything, lavande.ID).Return(lavande, nil)

	rr := s.do(t, http.MethodGet, "/api/cart", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	cartID := rr.Header().Get(handler.CartIDHeader)
	_, err := uuid.FromString(cartID)
	require.NoError(t, err, "a new cart id is issued")
	empty := decode[handler.CartResponse](t, rr)
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, "2026-10-20", empty.EstimatedDelivery)

	headers := map[string]string{handler.CartIDHeader: cartID}

	for i := 0; i < 2; i++ {
		rr = s.do(t, http.MethodPost, "/api/cart/items", handler.AddCartItemRequest{ProductID: lavande.ID}, headers)
		assertStatus(t, rr, http.StatusOK)
	}
	got := decode[handler.CartResponse](t, rr)
	assert.Equal(t, cartID, got.CartID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 2, got.ItemCount)
	assert.Equal(t, 17.90, got.Subtotal)
	assert.Equal(t, 5.90, got.Shipping)
	assert.Equal(t, 23.80, got.Total)
	assert.Equal(t, 11.10, got.FreeShippingRemaining)
	assert.True(t, got.ShowFreeShippingHint)

	rr = s.do(t, http.MethodPatch, "/api/cart/items/"+lavande.ID, handler.SetQuantityRequest{Quantity: 4}, headers)
	assertStatus(t, rr, http.StatusOK)
	got = decode[handler.CartResponse](t, rr)
	assert.Equal(t, 35.80, got.Subtotal)
	assert.Zero(t, got.Shipping)
	assert.Equal(t, 35.80, got.Total)
	assert.False(t, got.ShowFreeShippingHint)

	rr = s.do(t, http.MethodDelete, "/api/cart/items/"+lavande.ID, nil, headers)
	assertStatus(t, rr, http.StatusOK)
	assert.Empty(t, decode[handler.CartResponse](t, rr).Items)
}

func TestCartHandler_AddItemFailures(t *testing.T) {
	cartID := uuid.Must(uuid.NewV4()).String()
	outOfStock := &catalog.Product{ID: "ortie", Name: "Shampooing Ortie", Price: 9.9, Stock: 0}

	tests := []struct {
		name       string
		headers    map[string]string
		body       interface{}
		setup      func(s *testServer)
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid_cart_id",
			headers:    map[string]string{handler.CartIDHeader: "../../etc"},
			body:       handler.AddCartItemRequest{ProductID: lavande.ID},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing_product_id",
			headers:    map[string]string{handler.CartIDHeader: cartID},
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
		{
			name:       "unknown_field",
			headers:    map[string]string{handler.CartIDHeader: cartID},
			body:       `{"productId": "x", "price": 0.01}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request payload",
		},
		{
			name:    "unknown_product",
			headers: map[string]string{handler.CartIDHeader: cartID},
			body:    handler.AddCartItemRequest{ProductID: "missing"},
			setup: func(s *testServer) {
				s.products.On("GetProduct", mock.Anything, "missing").Return(nil, catalog.ErrProductNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "product not found",
		},
		{
			name:    "out_of_stock",
			headers: map[string]string{handler.CartIDHeader: cartID},
			body:    handler.AddCartItemRequest{ProductID: "ortie"},
			setup: func(s *testServer) {
				s.products.On("GetProduct", mock.Anything, "ortie").Return(outOfStock, nil)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:    "catalog_down",
			headers: map[string]string{handler.CartIDHeader: cartID},
			body:    handler.AddCartItemRequest{ProductID: "lav"},
			setup: func(s *testServer) {
				s.products.On("GetProduct", mock.Anything, "lav").Return(nil, errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to load product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			if tt.setup != nil {
				tt.setup(s)
			}

			rr := s.do(t, http.MethodPost, "/api/cart/items", tt.body, tt.headers)
			assertStatus(t, rr, tt.wantStatus)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[handler.ErrorResponse](t, rr).Error)
			}
		})
	}
}

func TestCartHandler_ValidationDetailsUseJSONNames(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/api/cart/items", map[string]string{},
		map[string]string{handler.CartIDHeader: uuid.Must(uuid.NewV4()).String()})

	assertStatus(t, rr, http.StatusBadRequest)
	resp := decode[handler.ValidationErrorResponse](t, rr)
	assert.Equal(t, map[string]string{"productId": "is required"}, resp.Details)
}

func TestCartHandler_SetQuantityClampsToOne(t *testing.T) {
	for _, qty := range []int{-5, 0} {
		s := newTestServer(t)
		s.products.On("GetProduct", mock.Anything, lavande.ID).Return(lavande, nil)
		headers := map[string]string{handler.CartIDHeader: uuid.Must(uuid.NewV4()).String()}
		assertStatus(t, s.do(t, http.MethodPost, "/api/cart/items", handler.AddCartItemRequest{ProductID: lavande.ID}, headers), http.StatusOK)

		rr := s.do(t, http.MethodPatch, "/api/cart/items/"+lavande.ID, handler.SetQuantityRequest{Quantity: qty}, headers)
		assertStatus(t, rr, http.StatusOK)
		got := decode[handler.CartResponse](t, rr)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 1, got.Items[0].Quantity, "quantity %d", qty)
		assert.Equal(t, 8.95, got.Subtotal)
	}
}

func TestCartHandler_MutationsNeedCartID(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPatch, "/api/cart/items/lav", handler.SetQuantityRequest{Quantity: 2}, nil)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = s.do(t, http.MethodDelete, "/api/cart", nil, nil)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCartHandler_Clear(t *testing.T) {
	s := newTestServer(t)
	s.products.On("GetProduct", mock.Anything, lavande.ID).Return(lavande, nil)
	headers := map[string]string{handler.CartIDHeader: uuid.Must(uuid.NewV4()).String()}

	assertStatus(t, s.do(t, http.MethodPost, "/api/cart/items", handler.AddCartItemRequest{ProductID: lavande.ID}, headers), http.StatusOK)
	assertStatus(t, s.do(t, http.MethodDelete, "/api/cart", nil, headers), http.StatusNoContent)

	rr := s.do(t, http.MethodGet, "/api/cart", nil, headers)
	assertStatus(t, rr, http.StatusOK)
	assert.Zero(t, decode[handler.CartResponse](t, rr).ItemCount)
}

func TestProductHandler(t *testing.T) {
	s := newTestServer(t)
	s.products.On("ListProducts", mock.Anything).Return([]catalog.Product{*lavande}, nil).Once()
	s.products.On("GetProduct", mock.Anything, "nope").Return(nil, catalog.ErrProductNotFound).Once()

	rr := s.do(t, http.MethodGet, "/api/products", nil, nil)
	assertStatus(t, rr, http.StatusOK)
	products := decode[[]catalog.Product](t, rr)
	require.Len(t, products, 1)
	assert.Equal(t, "Savon Lavande", products[0].Name)

	rr = s.do(t, http.MethodGet, "/api/products/nope", nil, nil)
	assertStatus(t, rr, http.StatusNotFound)
	s.products.AssertExpectations(t)
}
