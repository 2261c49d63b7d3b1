package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/soap-shop/internal/checkout"
	handler "github.com/vasiliy-maslov/soap-shop/internal/handler/http"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

func TestCheckoutHandler_CreateSession(t *testing.T) {
	cartID := uuid.Must(uuid.NewV4()).String()
	body := handler.CheckoutRequest{Email: "sophie@example.fr", Name: "Sophie Martin", Address: "12 rue des Lilas, 69003 Lyon", Phone: "0601020304"}
	contact := order.Contact{Email: body.Email, Name: body.Name, Address: body.Address, Phone: body.Phone}

	tests := []struct {
		name       string
		headers    map[string]string
		body       interface{}
		setup      func(m *MockCheckoutService)
		wantStatus int
		wantError  string
	}{
		{
			name:    "session_created",
			headers: map[string]string{handler.CartIDHeader: cartID},
			body:    body,
			setup: func(m *MockCheckoutService) {
				m.On("CreateSession", mock.Anything, cartID, contact).
					Return(checkout.Result{OrderID: orderID, URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing_cart_header",
			body:       body,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing X-Cart-ID header",
		},
		{
			name:       "missing_email",
			headers:    map[string]string{handler.CartIDHeader: cartID},
			body:       handler.CheckoutRequest{Name: "Sophie Martin"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
		{
			name:    "empty_cart",
			headers: map[string]string{handler.CartIDHeader: cartID},
			body:    body,
			setup: func(m *MockCheckoutService) {
				m.On("CreateSession", mock.Anything, cartID, contact).Return(checkout.Result{}, checkout.ErrEmptyCart).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  checkout.ErrEmptyCart.Error(),
		},
		{
			name:    "provider_unavailable",
			headers: map[string]string{handler.CartIDHeader: cartID},
			body:    body,
			setup: func(m *MockCheckoutService) {
				m.On("CreateSession", mock.Anything, cartID, contact).
					Return(checkout.Result{}, fmt.Errorf("checkout: %w: %w", checkout.ErrProvider, errors.New("api key expired"))).Once()
			},
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to create checkout session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			if tt.setup != nil {
				tt.setup(s.checkout)
			}

			rr := s.do(t, http.MethodPost, "/api/create-checkout-session", tt.body, tt.headers)
			assertStatus(t, rr, tt.wantStatus)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[handler.ErrorResponse](t, rr).Error)
			} else {
				got := decode[checkout.Result](t, rr)
				assert.Equal(t, orderID, got.OrderID)
				assert.Contains(t, got.URL, "cs_test_123")
			}
			s.checkout.AssertExpectations(t)
		})
	}
}
