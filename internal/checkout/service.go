package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/soap-shop/internal/cart"
	"github.com/vasiliy-maslov/soap-shop/internal/config"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrEmailRequired = errors.New("customer email is required")
)

const (
	shippingLabelPaid = "Colissimo"
	shippingLabelFree = "Livraison offerte"
	paymentMethodCard = "card"
)

type Result struct {
	OrderID string `json:"orderId"`
	URL     string `json:"url"`
}

type Service interface {
	// CreateSession records a pending order for the cart, opens a payment
	// session for it and empties the cart.
	CreateSession(ctx context.Context, cartID string, customer order.Contact) (Result, error)
}

type service struct {
	carts    cart.Service
	orders   order.Service
	provider Provider
	cfg      config.StripeConfig
}

func NewService(carts cart.Service, orders order.Service, provider Provider, cfg config.StripeConfig) Service {
	return &service{carts: carts, orders: orders, provider: provider, cfg: cfg}
}

func toMinor(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func (s *service) CreateSession(ctx context.Context, cartID string, customer order.Contact) (Result, error) {
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Email == "" {
		return Result{}, ErrEmailRequired
	}

	summary, err := s.carts.Summary(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	if len(summary.Items) == 0 {
		return Result{}, ErrEmptyCart
	}

	pending := &order.Order{
		Customer:      customer,
		Shipping:      summary.Shipping.InexactFloat64(),
		Amount:        summary.Total.Round(2).InexactFloat64(),
		PaymentMethod: paymentMethodCard,
	}
	lineItems := make([]LineItem, 0, len(summary.Items))
	for _, it := range summary.Items {
		pending.Items = append(pending.Items, order.Item{ID: it.ID, Name: it.Name, Quantity: it.Quantity, Price: it.Price})
		lineItems = append(lineItems, LineItem{
			Name:       it.Name,
			Image:      it.Image,
			UnitAmount: toMinor(decimal.NewFromFloat(it.Price)),
			Quantity:   int64(it.Quantity),
		})
	}

	created, err := s.orders.CreateOrder(ctx, pending)
	if err != nil {
		return Result{}, fmt.Errorf("service: failed to record order: %w", err)
	}

	label := shippingLabelPaid
	if summary.Shipping.IsZero() {
		label = shippingLabelFree
	}

	url, err := s.provider.CreateSession(ctx, Session{
		Reference:      created.ID,
		CustomerEmail:  customer.Email,
		Currency:       s.cfg.Currency,
		LineItems:      lineItems,
		ShippingLabel:  label,
		ShippingAmount: toMinor(summary.Shipping),
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
	})
	if err != nil {
		s.abandon(ctx, created.ID)
		if !errors.Is(err, ErrProvider) {
			err = fmt.Errorf("%w: %w", ErrProvider, err)
		}
		return Result{}, err
	}

	if err := s.carts.Clear(ctx, cartID); err != nil {
		log.Error().Err(err).Str("cart_id", cartID).Msg("service: failed to clear cart after checkout")
	}

	log.Info().Str("order_id", created.ID).Str("cart_id", cartID).Msg("service: checkout session created")
	return Result{OrderID: created.ID, URL: url}, nil
}

func (s *service) abandon(ctx context.Context, orderID string) {
	_, err := s.orders.UpdateOrderStatus(ctx, orderID, order.StatusChange{
		Status:             order.StatusCancelled,
		CancellationReason: "payment session could not be created",
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("service: failed to cancel order after provider failure")
	}
}
