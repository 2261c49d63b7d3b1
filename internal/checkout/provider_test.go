package checkout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/vasiliy-maslov/soap-shop/internal/checkout"
)

func newStripeProvider(t *testing.T, handler http.HandlerFunc) *checkout.StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return checkout.NewStripeProvider("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestStripeProvider_CreateSession(t *testing.T) {
	var form url.Values
	provider := newStripeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = r.ParseForm()
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cs_test_1", "object": "checkout.session", "url": "https://checkout.stripe.com/c/pay/cs_test_1"}`))
	})

	got, err := provider.CreateSession(context.Background(), checkout.Session{
		Reference:     orderID,
		CustomerEmail: "sophie@example.fr",
		Currency:      "eur",
		LineItems: []checkout.LineItem{
			{Name: "Savon Lavande", Image: "https://cdn.example/lavande.jpg", UnitAmount: 895, Quantity: 2},
			{Name: "Savon Miel", UnitAmount: 795, Quantity: 1},
		},
		ShippingLabel:  "Colissimo",
		ShippingAmount: 590,
		SuccessURL:     stripeCfg.SuccessURL,
		CancelURL:      stripeCfg.CancelURL,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", got)

	require.NotNil(t, form)
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, orderID, form.Get("client_reference_id"))
	assert.Equal(t, "sophie@example.fr", form.Get("customer_email"))
	assert.Equal(t, "895", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "Savon Lavande", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "https://cdn.example/lavande.jpg", form.Get("line_items[0][price_data][product_data][images][0]"))
	assert.Equal(t, "795", form.Get("line_items[1][price_data][unit_amount]"))
	assert.Empty(t, form.Get("line_items[1][price_data][product_data][images][0]"))
	assert.Equal(t, "590", form.Get("shipping_options[0][shipping_rate_data][fixed_amount][amount]"))
	assert.Equal(t, "Colissimo", form.Get("shipping_options[0][shipping_rate_data][display_name]"))
}

func TestStripeProvider_CreateSessionError(t *testing.T) {
	provider := newStripeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "Invalid currency"}}`))
	})

	_, err := provider.CreateSession(context.Background(), checkout.Session{
		Reference: orderID,
		Currency:  "zzz",
		LineItems: []checkout.LineItem{{Name: "Savon Lavande", UnitAmount: 895, Quantity: 1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, checkout.ErrProvider)

	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, "Invalid currency", stripeErr.Msg)
}
