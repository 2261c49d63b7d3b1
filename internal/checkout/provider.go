// Package checkout hands a cart over to the payment provider's hosted
// checkout page.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrProvider = errors.New("payment provider failed")

// LineItem amounts are in the currency's minor unit.
type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

type Session struct {
	Reference      string
	CustomerEmail  string
	Currency       string
	LineItems      []LineItem
	ShippingLabel  string
	ShippingAmount int64
	SuccessURL     string
	CancelURL      string
}

type Provider interface {
	// CreateSession returns the URL of the hosted payment page.
	CreateSession(ctx context.Context, s Session) (string, error)
}

type StripeProvider struct {
	api *client.API
}

// NewStripeProvider builds a provider on the default Stripe backends, or on
// backends when it is not nil.
func NewStripeProvider(secretKey string, backends *stripe.Backends) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, backends)}
}

func (p *StripeProvider) CreateSession(ctx context.Context, s Session) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(s.Reference),
		CustomerEmail:     stripe.String(s.CustomerEmail),
		SuccessURL:        stripe.String(s.SuccessURL),
		CancelURL:         stripe.String(s.CancelURL),
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
					Type:        stripe.String("fixed_amount"),
					DisplayName: stripe.String(s.ShippingLabel),
					FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(s.ShippingAmount),
						Currency: stripe.String(s.Currency),
					},
				},
			},
		},
	}
	params.Context = ctx

	for _, item := range s.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		log.Error().Err(err).Str("reference", s.Reference).Msg("checkout: stripe session creation failed")
		return "", fmt.Errorf("checkout: stripe: %w: %w", ErrProvider, err)
	}
	return sess.URL, nil
}
