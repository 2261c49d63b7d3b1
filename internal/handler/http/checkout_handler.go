package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/soap-shop/internal/checkout"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

type CheckoutRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CheckoutHandler struct {
	service  checkout.Service
	validate *validator.Validate
}

func NewCheckoutHandler(service checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service, validate: newValidator()}
}

func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/create-checkout-session", h.handleCreateSession)
}

func (h *CheckoutHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	cartID := r.Header.Get(CartIDHeader)
	if cartID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing "+CartIDHeader+" header")
		return
	}

	var req CheckoutRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.service.CreateSession(r.Context(), cartID, order.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create checkout session")
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
