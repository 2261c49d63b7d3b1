package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/soap-shop/internal/backend"
	"github.com/vasiliy-maslov/soap-shop/internal/cart"
	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
	"github.com/vasiliy-maslov/soap-shop/internal/checkout"
	"github.com/vasiliy-maslov/soap-shop/internal/config"
	"github.com/vasiliy-maslov/soap-shop/internal/dashboard"
	"github.com/vasiliy-maslov/soap-shop/internal/db"
	handler "github.com/vasiliy-maslov/soap-shop/internal/handler/http"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
	"github.com/vasiliy-maslov/soap-shop/internal/user"
)

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "local" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", cfg.Name).Logger()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)
	log.Info().Str("env", cfg.App.Env).Msg("Storefront starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	}

	var cartStore cart.Store = cart.NewMemoryStore()
	if redisClient != nil {
		cartStore = cart.NewRedisStore(redisClient, cfg.Redis.CartTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, carts are kept in memory")
	}

	products := catalog.NewService(catalog.NewRepository(pg.SQLX()))
	orders := order.NewService(order.NewRepository(pg.Pool))
	carts := cart.NewService(cartStore, time.Now)

	tokens := user.NewTokens(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	users := user.NewService(user.NewRepository(pg.Pool), tokens)

	var source dashboard.Source
	if cfg.Backend.URL != "" {
		source = backend.NewClient(cfg.Backend)
		log.Info().Str("url", cfg.Backend.URL).Msg("Dashboard reads from remote backend")
	} else {
		source = dashboard.NewLocalSource(orders, products)
	}
	if redisClient != nil && cfg.Redis.DashboardTTL > 0 {
		source = dashboard.NewCachedSource(source, redisClient, cfg.Redis.DashboardTTL)
	}
	dashboards := dashboard.NewService(source, time.Now, cfg.Location())

	if cfg.Stripe.SecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, checkout sessions will fail")
	}
	checkouts := checkout.NewService(carts, orders, checkout.NewStripeProvider(cfg.Stripe.SecretKey, nil), cfg.Stripe)

	router := handler.NewRouter(handler.Handlers{
		Users:     handler.NewUserHandler(users),
		Products:  handler.NewProductHandler(products),
		Cart:      handler.NewCartHandler(carts, products),
		Checkout:  handler.NewCheckoutHandler(checkouts),
		Orders:    handler.NewOrderHandler(orders),
		Dashboard: handler.NewDashboardHandler(dashboards),
	}, users, 30*time.Second)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Storefront stopped")
}
