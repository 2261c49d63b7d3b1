package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/soap-shop/internal/cart"
	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
	"github.com/vasiliy-maslov/soap-shop/internal/checkout"
	"github.com/vasiliy-maslov/soap-shop/internal/dashboard"
	handler "github.com/vasiliy-maslov/soap-shop/internal/handler/http"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
	"github.com/vasiliy-maslov/soap-shop/internal/user"
)

const (
	customerID = "3b0d8f6e-5a7c-4e2b-9d1f-6c8a0e4b2f11"
	adminID    = "7c2e9a41-0d3b-4f6e-8a15-9b4c7d2e6f80"
	orderID    = "9a3f5c2e-1b7d-4e8a-b6c4-2d0f8e1a7b35"
)

var tokens = user.NewTokens("handler-test-secret", time.Hour)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SignUp(ctx context.Context, req user.SignUp) (*user.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) SignIn(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id string, profile user.Profile) (*user.User, error) {
	args := m.Called(ctx, id, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id string, change user.PasswordChange) error {
	args := m.Called(ctx, id, change)
	return args.Error(0)
}

// ParseToken uses real tokens so tests authenticate with signed JWTs.
func (m *MockUserService) ParseToken(raw string) (*user.Claims, error) {
	return tokens.Parse(raw)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, q order.Query) (order.ListResult, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(order.ListResult), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id string, change order.StatusChange) (*order.Order, error) {
	args := m.Called(ctx, id, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Dataset(ctx context.Context) (order.Dataset, error) {
	args := m.Called(ctx)
	return args.Get(0).(order.Dataset), args.Error(1)
}

func (m *MockOrderService) Customers(ctx context.Context) ([]order.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Customer), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summary(ctx context.Context, p dashboard.Period) dashboard.Summary {
	args := m.Called(ctx, p)
	return args.Get(0).(dashboard.Summary)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateSession(ctx context.Context, cartID string, customer order.Contact) (checkout.Result, error) {
	args := m.Called(ctx, cartID, customer)
	return args.Get(0).(checkout.Result), args.Error(1)
}

type testServer struct {
	router    *chi.Mux
	users     *MockUserService
	orders    *MockOrderService
	products  *MockProductService
	dashboard *MockDashboardService
	checkout  *MockCheckoutService
	carts     cart.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		users:     new(MockUserService),
		orders:    new(MockOrderService),
		products:  new(MockProductService),
		dashboard: new(MockDashboardService),
		checkout:  new(MockCheckoutService),
		carts:     cart.NewService(cart.NewMemoryStore(), func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }),
	}
	s.router = handler.NewRouter(handler.Handlers{
		Users:     handler.NewUserHandler(s.users),
		Products:  handler.NewProductHandler(s.products),
		Cart:      handler.NewCartHandler(s.carts, s.products),
		Checkout:  handler.NewCheckoutHandler(s.checkout),
		Orders:    handler.NewOrderHandler(s.orders),
		Dashboard: handler.NewDashboardHandler(s.dashboard),
	}, s.users, time.Second)
	return s
}

func bearer(t *testing.T, id string, role user.Role) string {
	t.Helper()
	raw, err := tokens.Issue(&user.User{ID: id, Role: role})
	require.NoError(t, err)
	return "Bearer " + raw
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), rr.Body.String())
	return out
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rr.Code, rr.Body.String())
}

func authHeader(value string) map[string]string {
	return map[string]string{"Authorization": value}
}
