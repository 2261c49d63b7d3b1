package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Users     *UserHandler
	Products  *ProductHandler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Orders    *OrderHandler
	Dashboard *DashboardHandler
}

func NewRouter(h Handlers, tokens TokenParser, requestTimeout time.Duration) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		router.Use(middleware.Timeout(requestTimeout))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h.Users.RegisterRoutes(router)
	h.Products.RegisterRoutes(router)
	h.Cart.RegisterRoutes(router)
	h.Checkout.RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(RequireAuth(tokens))
		r.Use(RequireAdmin)
		h.Orders.RegisterAdminRoutes(r)
		h.Dashboard.RegisterAdminRoutes(r)
	})

	return router
}
