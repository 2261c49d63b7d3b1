package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

var (
	ErrInvalidStatus              = errors.New("invalid order status")
	ErrInvalidStatusTransition    = errors.New("invalid order status transition")
	ErrTrackingNumberRequired     = errors.New("tracking number is required to ship an order")
	ErrCancellationReasonRequired = errors.New("cancellation reason is required to cancel an order")
	ErrEmptyOrder                 = errors.New("order must contain at least one item")
	ErrCustomerEmailRequired      = errors.New("customer email is required")
)

// ListResult is one page of the admin order list plus the badge count of
// every status tab over all orders.
type ListResult struct {
	Orders []Order        `json:"orders"`
	Counts map[string]int `json:"counts"`
	Sort   SortState      `json:"sort"`
}

type Service interface {
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, q Query) (ListResult, error)
	UpdateOrderStatus(ctx context.Context, id string, change StatusChange) (*Order, error)
	Dataset(ctx context.Context) (Dataset, error)
	Customers(ctx context.Context) ([]Customer, error)
}

type service struct {
	orderRepo Repository
}

func NewService(orderRepo Repository) Service {
	return &service{orderRepo: orderRepo}
}

// CreateOrder records a new pending order and registers its customer. The
// total passed in is trusted as is.
func (s *service) CreateOrder(ctx context.Context, order *Order) (*Order, error) {
	if len(order.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, ErrEmptyOrder
	}
	if strings.TrimSpace(order.Customer.Email) == "" {
		return nil, ErrCustomerEmailRequired
	}

	for _, item := range order.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: order item quantity for product %s must be greater than zero", item.ID)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("service: order item price for product %s cannot be negative", item.ID)
		}
	}

	order.ID = ""
	order.Status = StatusPending
	order.StatusLabel = StatusPending.Label()

	customer := &Customer{Name: order.Customer.Name, Email: order.Customer.Email}
	if err := s.orderRepo.UpsertCustomer(ctx, customer); err != nil {
		log.Error().Err(err).Str("email", order.Customer.Email).Msg("service: failed to register customer")
		return nil, fmt.Errorf("service: failed to register customer: %w", err)
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Str("order_id", order.ID).Float64("total", order.Amount).Msg("service: order created")
	return order, nil
}

func (s *service) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.FromString(id); err != nil {
		return nil, ErrOrderNotFound
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Str("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, q Query) (ListResult, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return ListResult{}, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return ListResult{
		Orders: Apply(orders, q),
		Counts: CountByStatus(orders),
		Sort:   q.Sort,
	}, nil
}

// UpdateOrderStatus moves an order along allowedTransitions. Asking for the
// current status is a no-op that returns the order unchanged.
func (s *service) UpdateOrderStatus(ctx context.Context, id string, change StatusChange) (*Order, error) {
	if !change.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status == change.Status {
		log.Info().Str("order_id", id).Stringer("status", change.Status).Msg("service: order status is already the same, no update needed")
		return current, nil
	}

	if !allowedTransitions[current.Status][change.Status] {
		log.Warn().
			Str("order_id", id).
			Stringer("current_status", current.Status).
			Stringer("new_status", change.Status).
			Msg("service: invalid status transition attempt")
		return nil, fmt.Errorf("service: %s to %s: %w", current.Status, change.Status, ErrInvalidStatusTransition)
	}

	change.TrackingNumber = strings.TrimSpace(change.TrackingNumber)
	change.CancellationReason = strings.TrimSpace(change.CancellationReason)
	switch change.Status {
	case StatusShipped:
		if change.TrackingNumber == "" {
			return nil, ErrTrackingNumberRequired
		}
	case StatusCancelled:
		if change.CancellationReason == "" {
			return nil, ErrCancellationReasonRequired
		}
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, change); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", id).Stringer("new_status", change.Status).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Str("order_id", id).Stringer("old_status", current.Status).Stringer("new_status", change.Status).Msg("service: order status updated")

	updated := *current
	updated.Status = change.Status
	updated.StatusLabel = change.Status.Label()
	if change.TrackingNumber != "" {
		updated.TrackingNumber = change.TrackingNumber
	}
	if change.CancellationReason != "" {
		updated.CancellationReason = change.CancellationReason
	}
	return &updated, nil
}

// Dataset partitions every stored order by status bucket.
func (s *service) Dataset(ctx context.Context) (Dataset, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("service: failed to load orders: %w", err)
	}
	return Partition(orders), nil
}

func (s *service) Customers(ctx context.Context) ([]Customer, error) {
	customers, err := s.orderRepo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load customers: %w", err)
	}
	return customers, nil
}
