package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

// Source loads the raw data one dashboard run aggregates.
type Source interface {
	Load(ctx context.Context) (Input, error)
}

type localSource struct {
	orders  order.Service
	catalog catalog.Service
}

// NewLocalSource reads orders, customers and stock from this instance's own
// database.
func NewLocalSource(orders order.Service, products catalog.Service) Source {
	return &localSource{orders: orders, catalog: products}
}

func (s *localSource) Load(ctx context.Context) (Input, error) {
	dataset, err := s.orders.Dataset(ctx)
	if err != nil {
		return Input{}, err
	}
	customers, err := s.orders.Customers(ctx)
	if err != nil {
		return Input{}, err
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return Input{}, err
	}
	return Input{Orders: dataset, Customers: customers, Products: products}, nil
}

const cacheKey = "dashboard:input"

type cachedSource struct {
	next        Source
	redisClient *redis.Client
	cacheTTL    time.Duration
}

// NewCachedSource keeps the last successful load in Redis for ttl. Cache
// failures fall through to next; failed loads are never cached.
func NewCachedSource(next Source, redisClient *redis.Client, ttl time.Duration) Source {
	return &cachedSource{next: next, redisClient: redisClient, cacheTTL: ttl}
}

func (s *cachedSource) Load(ctx context.Context) (Input, error) {
	val, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var in Input
		if err := json.Unmarshal(val, &in); err == nil {
			return in, nil
		}
		log.Warn().Msg("dashboard: cached input is unreadable, reloading")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Msg("dashboard: cache read failed")
	}

	in, err := s.next.Load(ctx)
	if err != nil {
		return Input{}, err
	}

	data, err := json.Marshal(in)
	if err != nil {
		return in, nil
	}
	if err := s.redisClient.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache write failed")
	}
	return in, nil
}
