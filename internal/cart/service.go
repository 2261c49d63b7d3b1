package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrInvalidCartID = errors.New("cart id is required")

// Summary is everything the cart page shows, computed from one snapshot.
type Summary struct {
	Items                 Cart
	ItemCount             int
	Subtotal              decimal.Decimal
	Shipping              decimal.Decimal
	Total                 decimal.Decimal
	FreeShippingRemaining decimal.Decimal
	ShowFreeShippingHint  bool
	EstimatedDelivery     time.Time
}

func Summarize(c Cart, now time.Time) Summary {
	if c == nil {
		c = Cart{}
	}
	return Summary{
		Items:                 c,
		ItemCount:             c.ItemCount(),
		Subtotal:              c.Subtotal(),
		Shipping:              c.ShippingCost(),
		Total:                 c.Total(),
		FreeShippingRemaining: c.FreeShippingRemaining(),
		ShowFreeShippingHint:  c.ShowFreeShippingHint(),
		EstimatedDelivery:     EstimatedDeliveryDate(now),
	}
}

type Service interface {
	Get(ctx context.Context, cartID string) (Cart, error)
	Summary(ctx context.Context, cartID string) (Summary, error)
	AddItem(ctx context.Context, cartID string, p Product) (Cart, error)
	SetQuantity(ctx context.Context, cartID, itemID string, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store, clock func() time.Time) Service {
	if clock == nil {
		clock = time.Now
	}
	return &service{store: store, clock: clock}
}

func storeKey(cartID string) string {
	return "cart:" + cartID
}

// load never fails on bad data: unreadable or malformed carts come back empty.
func (s *service) load(ctx context.Context, cartID string) (Cart, error) {
	data, err := s.store.Get(ctx, storeKey(cartID))
	if err != nil {
		return nil, err
	}

	c, ok := Decode(data)
	if !ok {
		log.Warn().Str("cart_id", cartID).Msg("service: stored cart is malformed, starting from an empty cart")
	}
	return c, nil
}

func (s *service) save(ctx context.Context, cartID string, c Cart) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("service: failed to encode cart: %w", err)
	}
	if err := s.store.Set(ctx, storeKey(cartID), data); err != nil {
		return fmt.Errorf("service: failed to persist cart: %w", err)
	}
	return nil
}

func (s *service) Get(ctx context.Context, cartID string) (Cart, error) {
	if cartID == "" {
		return nil, ErrInvalidCartID
	}

	c, err := s.load(ctx, cartID)
	if err != nil {
		log.Error().Err(err).Str("cart_id", cartID).Msg("service: failed to read cart, rendering it empty")
		return Cart{}, nil
	}
	return c, nil
}

func (s *service) Summary(ctx context.Context, cartID string) (Summary, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(c, s.clock()), nil
}

// mutate reads, transforms and writes the cart back in one step. Read errors
// abort the mutation so a transient store failure cannot overwrite a cart.
func (s *service) mutate(ctx context.Context, cartID string, fn func(Cart) Cart) (Cart, error) {
	if cartID == "" {
		return nil, ErrInvalidCartID
	}

	current, err := s.load(ctx, cartID)
	if err != nil {
		log.Error().Err(err).Str("cart_id", cartID).Msg("service: failed to read cart before update")
		return nil, fmt.Errorf("service: failed to read cart: %w", err)
	}

	updated := fn(current)
	if err := s.save(ctx, cartID, updated); err != nil {
		log.Error().Err(err).Str("cart_id", cartID).Msg("service: failed to save cart")
		return nil, err
	}

	log.Debug().Str("cart_id", cartID).Int("item_count", updated.ItemCount()).Msg("service: cart updated")
	return updated, nil
}

func (s *service) AddItem(ctx context.Context, cartID string, p Product) (Cart, error) {
	return s.mutate(ctx, cartID, func(c Cart) Cart { return c.Add(p) })
}

func (s *service) SetQuantity(ctx context.Context, cartID, itemID string, quantity int) (Cart, error) {
	return s.mutate(ctx, cartID, func(c Cart) Cart { return c.SetQuantity(itemID, quantity) })
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID string) (Cart, error) {
	return s.mutate(ctx, cartID, func(c Cart) Cart { return c.Remove(itemID) })
}

func (s *service) Clear(ctx context.Context, cartID string) error {
	_, err := s.mutate(ctx, cartID, func(Cart) Cart { return Cart{} })
	return err
}
