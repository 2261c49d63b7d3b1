package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/soap-shop/internal/cart"
	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
)

// CartIDHeader carries the anonymous cart id in both directions.
const CartIDHeader = "X-Cart-ID"

type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// SetQuantityRequest takes any quantity; the cart clamps it to at least 1.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	CartID                string          `json:"cartId"`
	Items                 []cart.CartItem `json:"items"`
	ItemCount             int             `json:"itemCount"`
	Subtotal              float64         `json:"subtotal"`
	Shipping              float64         `json:"shipping"`
	Total                 float64         `json:"total"`
	FreeShippingRemaining float64         `json:"freeShippingRemaining"`
	ShowFreeShippingHint  bool            `json:"showFreeShippingHint"`
	EstimatedDelivery     string          `json:"estimatedDelivery"`
}

func newCartResponse(cartID string, s cart.Summary) CartResponse {
	items := s.Items
	if items == nil {
		items = cart.Cart{}
	}
	return CartResponse{
		CartID:                cartID,
		Items:                 items,
		ItemCount:             s.ItemCount,
		Subtotal:              s.Subtotal.Round(2).InexactFloat64(),
		Shipping:              s.Shipping.Round(2).InexactFloat64(),
		Total:                 s.Total.Round(2).InexactFloat64(),
		FreeShippingRemaining: s.FreeShippingRemaining.Round(2).InexactFloat64(),
		ShowFreeShippingHint:  s.ShowFreeShippingHint,
		EstimatedDelivery:     s.EstimatedDelivery.Format("2006-01-02"),
	}
}

type CartHandler struct {
	carts    cart.Service
	products catalog.Service
	validate *validator.Validate
}

func NewCartHandler(carts cart.Service, products catalog.Service) *CartHandler {
	return &CartHandler{carts: carts, products: products, validate: newValidator()}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/cart", h.handleGetCart)
	router.Delete("/api/cart", h.handleClearCart)
	router.Post("/api/cart/items", h.handleAddItem)
	router.Patch("/api/cart/items/{itemID}", h.handleSetQuantity)
	router.Delete("/api/cart/items/{itemID}", h.handleRemoveItem)
}

// cartID reads the cart id header. When issue is true and the header is
// missing, a fresh id is minted and echoed back.
func (h *CartHandler) cartID(w http.ResponseWriter, r *http.Request, issue bool) (string, bool) {
	raw := r.Header.Get(CartIDHeader)
	if raw == "" {
		if !issue {
			respondWithError(w, http.StatusBadRequest, "Missing "+CartIDHeader+" header")
			return "", false
		}
		id, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate cart id")
			respondWithError(w, http.StatusInternalServerError, "Failed to create cart")
			return "", false
		}
		raw = id.String()
	} else if _, err := uuid.FromString(raw); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+CartIDHeader+" header")
		return "", false
	}

	w.Header().Set(CartIDHeader, raw)
	return raw, true
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, cartID string, code int) {
	summary, err := h.carts.Summary(r.Context(), cartID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load cart")
		return
	}
	respondWithJSON(w, code, newCartResponse(cartID, summary))
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r, true)
	if !ok {
		return
	}
	h.respondWithCart(w, r, cartID, http.StatusOK)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r, true)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load product")
		return
	}
	if product.Stock <= 0 {
		respondWithError(w, http.StatusConflict, "Product is out of stock")
		return
	}

	if _, err := h.carts.AddItem(r.Context(), cartID, product.CartProduct()); err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}
	h.respondWithCart(w, r, cartID, http.StatusOK)
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r, false)
	if !ok {
		return
	}

	var req SetQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if _, err := h.carts.SetQuantity(r.Context(), cartID, chi.URLParam(r, "itemID"), req.Quantity); err != nil {
		respondWithServiceError(w, err, "Failed to update cart item")
		return
	}
	h.respondWithCart(w, r, cartID, http.StatusOK)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r, false)
	if !ok {
		return
	}

	if _, err := h.carts.RemoveItem(r.Context(), cartID, chi.URLParam(r, "itemID")); err != nil {
		respondWithServiceError(w, err, "Failed to remove cart item")
		return
	}
	h.respondWithCart(w, r, cartID, http.StatusOK)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r, false)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), cartID); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
