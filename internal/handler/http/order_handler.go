package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

type UpdateStatusRequest struct {
	Status             string `json:"status" validate:"required"`
	TrackingNumber     string `json:"trackingNumber"`
	CancellationReason string `json:"cancellationReason"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{service: service, validate: newValidator()}
}

// RegisterAdminRoutes mounts the admin order views. The router is expected to
// be guarded by RequireAuth and RequireAdmin.
func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/api/admin/orders", h.handleListOrders)
	router.Get("/api/admin/orders/{id}", h.handleGetOrder)
	router.Patch("/api/admin/orders/{id}/status", h.handleUpdateStatus)
	router.Get("/orders", h.handleDataset)
	router.Get("/customers", h.handleCustomers)
}

// parseQuery reads ?status=&search=&sort=&dir=. Status accepts the English
// names, their French aliases and "all".
func parseQuery(r *http.Request) (order.Query, string) {
	params := r.URL.Query()
	q := order.Query{Search: params.Get("search")}

	if raw := strings.TrimSpace(params.Get("status")); raw != "" && raw != order.StatusAll {
		status, ok := order.ParseStatus(raw)
		if !ok {
			return order.Query{}, "Invalid status filter"
		}
		q.Status = string(status)
	}

	if raw := params.Get("sort"); raw != "" {
		key := order.SortKey(raw)
		if !key.Valid() {
			return order.Query{}, "Invalid sort key"
		}
		q.Sort.Key = key
		q.Sort.Dir = order.Asc
	}

	switch dir := params.Get("dir"); dir {
	case "":
	case string(order.Asc), string(order.Desc):
		q.Sort.Dir = order.Direction(dir)
	default:
		return order.Query{}, "Invalid sort direction"
	}

	return q, ""
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q, problem := parseQuery(r)
	if problem != "" {
		respondWithError(w, http.StatusBadRequest, problem)
		return
	}

	result, err := h.service.ListOrders(r.Context(), q)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	status, ok := order.ParseStatus(req.Status)
	if !ok {
		respondWithError(w, http.StatusBadRequest, order.ErrInvalidStatus.Error())
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), order.StatusChange{
		Status:             status,
		TrackingNumber:     req.TrackingNumber,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// handleDataset serves every order in the status-partitioned shape the
// dashboard's remote source reads.
func (h *OrderHandler) handleDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.Dataset(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to load orders")
		return
	}
	respondWithJSON(w, http.StatusOK, order.ToWire(dataset))
}

func (h *OrderHandler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.Customers(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to load customers")
		return
	}
	respondWithJSON(w, http.StatusOK, order.CustomersToWire(customers))
}
