package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrOrderNotFound = errors.New("order not found")

// StatusChange is what an admin status update writes. Empty strings leave the
// stored tracking number and cancellation reason untouched.
type StatusChange struct {
	Status             Status
	TrackingNumber     string
	CancellationReason string
}

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id string, change StatusChange) error
	UpsertCustomer(ctx context.Context, customer *Customer) error
	ListCustomers(ctx context.Context) ([]Customer, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `
	id::text, COALESCE(user_id::text, ''), status, customer_name, customer_email, customer_address,
	customer_phone, shipping::float8, total_amount::float8, payment_method,
	COALESCE(tracking_number, ''), COALESCE(cancellation_reason, ''), created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Address,
		&o.Customer.Phone,
		&o.Shipping,
		&o.Amount,
		&o.PaymentMethod,
		&o.TrackingNumber,
		&o.CancellationReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func nullableUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// CreateOrder inserts the order and its items in one transaction. ID and
// timestamps are assigned here and written back into order.
func (r *postgresRepository) CreateOrder(ctx context.Context, order *Order) (err error) {
	if order.ID == "" {
		id, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order id: %w", genErr)
		}
		order.ID = id.String()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			log.Warn().Err(err).Str("order_id", order.ID).Msg("repository: create order failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("order_id", order.ID).Msg("repository: failed to rollback transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, customer_name, customer_email, customer_address,
			customer_phone, shipping, total_amount, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.ID,
		nullableUUID(order.UserID),
		string(order.Status),
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Address,
		order.Customer.Phone,
		order.Shipping,
		order.Amount,
		order.PaymentMethod,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item id: %w", genErr)
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			itemID.String(), order.ID, item.ID, item.Name, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert item %s for order %s: %w", item.ID, order.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []Item{}
	}
	o.StatusLabel = o.Status.Label()
	return &o, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var ids []string
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.StatusLabel = o.Status.Label()
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []Item{}
		}
	}
	return orders, nil
}

func (r *postgresRepository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id::text, product_id, name, quantity, price::float8
		FROM order_items
		WHERE order_id = ANY($1::text[]::uuid[])`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var orderID string
		var it Item
		if err := rows.Scan(&orderID, &it.ID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		byOrder[orderID] = append(byOrder[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}
	return byOrder, nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, id string, change StatusChange) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
			tracking_number = COALESCE(NULLIF($2::text, ''), tracking_number),
			cancellation_reason = COALESCE(NULLIF($3::text, ''), cancellation_reason),
			updated_at = $4
		WHERE id = $5`,
		string(change.Status),
		change.TrackingNumber,
		change.CancellationReason,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error().Err(err).Str("order_id", id).Stringer("new_status", change.Status).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Str("order_id", id).Stringer("new_status", change.Status).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}
	return nil
}

// UpsertCustomer records the customer by email, keeping the original id and
// creation date of an existing one.
func (r *postgresRepository) UpsertCustomer(ctx context.Context, customer *Customer) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate customer id: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO customers (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = CASE WHEN EXCLUDED.name = '' THEN customers.name ELSE EXCLUDED.name END
		RETURNING id::text, name, created_at`,
		id.String(), customer.Name, customer.Email, time.Now().UTC(),
	).Scan(&customer.ID, &customer.Name, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert customer %s: %w", customer.Email, err)
	}
	return nil
}

func (r *postgresRepository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, name, email, created_at FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating customers: %w", err)
	}
	return customers, nil
}
