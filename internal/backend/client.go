// Package backend talks to a remote storefront backend that serves the
// status-partitioned /orders payload, /customers and the product list.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
	"github.com/vasiliy-maslov/soap-shop/internal/config"
	"github.com/vasiliy-maslov/soap-shop/internal/dashboard"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

var ErrUpstreamStatus = errors.New("upstream returned a non-2xx status")

const maxBodyBytes = 10 << 20

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(cfg config.BackendConfig) *Client {
	settings := gobreaker.Settings{
		Name:        "Backend",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("name", name).Stringer("from", from).Stringer("to", to).Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return executeWithBreaker(c.breaker, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("backend: failed to build request for %s: %w", path, err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("backend: GET %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("backend: GET %s: %d: %w", path, resp.StatusCode, ErrUpstreamStatus)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("backend: failed to read %s response: %w", path, err)
		}
		return body, nil
	})
}

func (c *Client) Orders(ctx context.Context) (order.Dataset, error) {
	body, err := c.get(ctx, "/orders")
	if err != nil {
		return order.Dataset{}, err
	}
	return order.DecodeDataset(body)
}

func (c *Client) Customers(ctx context.Context) ([]order.Customer, error) {
	body, err := c.get(ctx, "/customers")
	if err != nil {
		return nil, err
	}
	return order.DecodeCustomers(body)
}

func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	body, err := c.get(ctx, "/api/products")
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("backend: failed to decode products payload: %w", err)
	}
	return products, nil
}

// Load makes Client a dashboard.Source.
func (c *Client) Load(ctx context.Context) (dashboard.Input, error) {
	dataset, err := c.Orders(ctx)
	if err != nil {
		return dashboard.Input{}, err
	}
	customers, err := c.Customers(ctx)
	if err != nil {
		return dashboard.Input{}, err
	}
	// Products only feed the inventory section; without them it stays empty.
	products, err := c.Products(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("backend: products unavailable, inventory summary left empty")
	}
	return dashboard.Input{Orders: dataset, Customers: customers, Products: products}, nil
}
