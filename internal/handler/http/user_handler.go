package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/soap-shop/internal/user"
)

type SignUpRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignInResponse struct {
	Token  string    `json:"token"`
	UserID string    `json:"userId"`
	Role   user.Role `json:"role"`
	Email  string    `json:"email"`
}

type AddressRequest struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

type UpdateUserRequest struct {
	FirstName string         `json:"firstName" validate:"required,min=2"`
	LastName  string         `json:"lastName" validate:"required,min=2"`
	Phone     string         `json:"phone"`
	Address   AddressRequest `json:"address"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UserResponse struct {
	ID        string       `json:"id"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Email     string       `json:"email"`
	Role      user.Role    `json:"role"`
	Phone     string       `json:"phone"`
	Address   user.Address `json:"address"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service, validate: newValidator()}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users/signup", h.handleSignUp)
	router.Post("/users/signin", h.handleSignIn)

	router.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.service))
		r.With(RequireSelfOrAdmin).Get("/users/{id}", h.handleGetUser)
		r.With(RequireSelfOrAdmin).Put("/users/update/{id}", h.handleUpdateUser)
		r.With(RequireSelfOrAdmin).Put("/users/change-password/{id}", h.handleChangePassword)
	})
}

func (h *UserHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.SignUp(r.Context(), user.SignUp{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create user")
		return
	}
	respondWithJSON(w, http.StatusCreated, newUserResponse(created))
}

func (h *UserHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	token, u, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Failed to sign in")
		return
	}
	respondWithJSON(w, http.StatusOK, SignInResponse{Token: token, UserID: u.ID, Role: u.Role, Email: u.Email})
}

func (h *UserHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get user by id")
		return
	}
	respondWithJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "id"), user.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address: user.Address{
			Street:     req.Address.Street,
			PostalCode: req.Address.PostalCode,
			City:       req.Address.City,
			Country:    req.Address.Country,
		},
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update user")
		return
	}
	respondWithJSON(w, http.StatusOK, newUserResponse(updated))
}

func (h *UserHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "id"), user.PasswordChange{
		Current:      req.CurrentPassword,
		New:          req.NewPassword,
		Confirmation: req.ConfirmPassword,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
