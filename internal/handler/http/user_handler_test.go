package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	handler "github.com/vasiliy-maslov/soap-shop/internal/handler/http"
	"github.com/vasiliy-maslov/soap-shop/internal/user"
)

func sophie() *user.User {
	return &user.User{
		ID:        customerID,
		FirstName: "Sophie",
		LastName:  "Martin",
		Email:     "sophie@example.fr",
		Role:      user.RoleCustomer,
	}
}

func TestUserHandler_SignUp(t *testing.T) {
	body := handler.SignUpRequest{FirstName: "Sophie", LastName: "Martin", Email: "sophie@example.fr", Password: "savon2024"}
	want := user.SignUp{FirstName: "Sophie", LastName: "Martin", Email: "sophie@example.fr", Password: "savon2024"}

	t.Run("created", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("SignUp", mock.Anything, want).Return(sophie(), nil).Once()

		rr := s.do(t, http.MethodPost, "/users/signup", body, nil)
		assertStatus(t, rr, http.StatusCreated)
		got := decode[map[string]interface{}](t, rr)
		assert.Equal(t, customerID, got["id"])
		assert.NotContains(t, got, "passwordHash")
		s.users.AssertExpectations(t)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("SignUp", mock.Anything, want).Return(nil, user.ErrEmailExists).Once()

		rr := s.do(t, http.MethodPost, "/users/signup", body, nil)
		assertStatus(t, rr, http.StatusConflict)
	})

	t.Run("weak_password", func(t *testing.T) {
		s := newTestServer(t)
		weak := body
		weak.Password = "savonsavon"
		s.users.On("SignUp", mock.Anything, mock.Anything).Return(nil, user.ErrPasswordTooWeak).Once()

		rr := s.do(t, http.MethodPost, "/users/signup", weak, nil)
		assertStatus(t, rr, http.StatusBadRequest)
		assert.Equal(t, user.ErrPasswordTooWeak.Error(), decode[handler.ErrorResponse](t, rr).Error)
	})

	t.Run("invalid_email", func(t *testing.T) {
		s := newTestServer(t)
		bad := body
		bad.Email = "not-an-email"

		rr := s.do(t, http.MethodPost, "/users/signup", bad, nil)
		assertStatus(t, rr, http.StatusBadRequest)
		assert.Equal(t, "must be a valid email address", decode[handler.ValidationErrorResponse](t, rr).Details["email"])
		s.users.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	})
}

func TestUserHandler_SignIn(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("SignIn", mock.Anything, "sophie@example.fr", "savon2024").Return("signed.jwt.token", sophie(), nil).Once()

		rr := s.do(t, http.MethodPost, "/users/signin", handler.SignInRequest{Email: "sophie@example.fr", Password: "savon2024"}, nil)
		assertStatus(t, rr, http.StatusOK)
		assert.Equal(t, handler.SignInResponse{
			Token:  "signed.jwt.token",
			UserID: customerID,
			Role:   user.RoleCustomer,
			Email:  "sophie@example.fr",
		}, decode[handler.SignInResponse](t, rr))
	})

	t.Run("bad_credentials", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("SignIn", mock.Anything, "sophie@example.fr", "wrong").Return("", nil, user.ErrInvalidCredentials).Once()

		rr := s.do(t, http.MethodPost, "/users/signin", handler.SignInRequest{Email: "sophie@example.fr", Password: "wrong"}, nil)
		assertStatus(t, rr, http.StatusUnauthorized)
		assert.Equal(t, user.ErrInvalidCredentials.Error(), decode[handler.ErrorResponse](t, rr).Error)
	})
}

func TestUserHandler_GetUserAccess(t *testing.T) {
	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{name: "self", auth: "customer", wantStatus: http.StatusOK},
		{name: "admin", auth: "admin", wantStatus: http.StatusOK},
		{name: "other_customer", auth: "other", wantStatus: http.StatusForbidden},
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.users.On("GetUserByID", mock.Anything, customerID).Return(sophie(), nil).Maybe()

			var headers map[string]string
			switch tt.auth {
			case "customer":
				headers = authHeader(bearer(t, customerID, user.RoleCustomer))
			case "admin":
				headers = authHeader(bearer(t, adminID, user.RoleAdmin))
			case "other":
				headers = authHeader(bearer(t, orderID, user.RoleCustomer))
			}

			rr := s.do(t, http.MethodGet, "/users/"+customerID, nil, headers)
			assertStatus(t, rr, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Sophie", decode[handler.UserResponse](t, rr).FirstName)
			}
		})
	}
}

func TestUserHandler_UpdateUser(t *testing.T) {
	headers := authHeader(bearer(t, customerID, user.RoleCustomer))
	full := handler.UpdateUserRequest{
		FirstName: "Sophie",
		LastName:  "Martin",
		Phone:     "0601020304",
		Address:   handler.AddressRequest{Street: "12 rue des Lilas", PostalCode: "69003", City: "Lyon", Country: "France"},
	}

	t.Run("updated", func(t *testing.T) {
		s := newTestServer(t)
		updated := sophie()
		updated.Address = user.Address{Street: "12 rue des Lilas", PostalCode: "69003", City: "Lyon", Country: "France"}
		s.users.On("UpdateProfile", mock.Anything, customerID, user.Profile{
			FirstName: "Sophie",
			LastName:  "Martin",
			Phone:     "0601020304",
			Address:   updated.Address,
		}).Return(updated, nil).Once()

		rr := s.do(t, http.MethodPut, "/users/update/"+customerID, full, headers)
		assertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "Lyon", decode[handler.UserResponse](t, rr).Address.City)
		s.users.AssertExpectations(t)
	})

	t.Run("incomplete_address", func(t *testing.T) {
		s := newTestServer(t)
		partial := full
		partial.Address.City = ""
		s.users.On("UpdateProfile", mock.Anything, customerID, mock.Anything).Return(nil, user.ErrAddressIncomplete).Once()

		rr := s.do(t, http.MethodPut, "/users/update/"+customerID, partial, headers)
		assertStatus(t, rr, http.StatusBadRequest)
		assert.Equal(t, user.ErrAddressIncomplete.Error(), decode[handler.ErrorResponse](t, rr).Error)
	})

	t.Run("short_name", func(t *testing.T) {
		s := newTestServer(t)
		short := full
		short.FirstName = "S"

		rr := s.do(t, http.MethodPut, "/users/update/"+customerID, short, headers)
		assertStatus(t, rr, http.StatusBadRequest)
		details := decode[handler.ValidationErrorResponse](t, rr).Details
		require.Contains(t, details, "firstName")
		s.users.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserHandler_ChangePassword(t *testing.T) {
	headers := authHeader(bearer(t, customerID, user.RoleCustomer))
	req := handler.ChangePasswordRequest{CurrentPassword: "savon2024", NewPassword: "lavande42", ConfirmPassword: "lavande42"}
	change := user.PasswordChange{Current: "savon2024", New: "lavande42", Confirmation: "lavande42"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "changed", wantStatus: http.StatusNoContent},
		{name: "mismatch", err: user.ErrPasswordMismatch, wantStatus: http.StatusBadRequest},
		{name: "wrong_current", err: user.ErrWrongPassword, wantStatus: http.StatusBadRequest},
		{name: "too_short", err: user.ErrPasswordTooShort, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.users.On("ChangePassword", mock.Anything, customerID, change).Return(tt.err).Once()

			rr := s.do(t, http.MethodPut, "/users/change-password/"+customerID, req, headers)
			assertStatus(t, rr, tt.wantStatus)
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), decode[handler.ErrorResponse](t, rr).Error)
			} else {
				assert.Empty(t, rr.Body.String())
			}
			s.users.AssertExpectations(t)
		})
	}
}
