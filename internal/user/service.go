package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooWeak    = errors.New("password must contain at least one letter and one digit")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrAddressIncomplete  = errors.New("street, postal code, city and country are required")
)

const minPasswordLength = 8

type SignUp struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type Service interface {
	SignUp(ctx context.Context, req SignUp) (*User, error)
	SignIn(ctx context.Context, email, password string) (string, *User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, profile Profile) (*User, error)
	ChangePassword(ctx context.Context, id string, change PasswordChange) error
	ParseToken(raw string) (*Claims, error)
}

type service struct {
	repo   Repository
	tokens *Tokens
}

func NewService(repo Repository, tokens *Tokens) Service {
	return &service{repo: repo, tokens: tokens}
}

// ValidatePassword enforces the minimum strength of a new password.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordTooWeak
	}
	return nil
}

func validateAddress(a Address) error {
	for _, field := range []string{a.Street, a.PostalCode, a.City, a.Country} {
		if strings.TrimSpace(field) == "" {
			return ErrAddressIncomplete
		}
	}
	return nil
}

func (s *service) SignUp(ctx context.Context, req SignUp) (*User, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	u := &User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         RoleCustomer,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	log.Info().Str("user_id", u.ID).Msg("service: user signed up")
	return u, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("service: failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("user_id", u.ID).Msg("service: sign in with wrong password")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, fmt.Errorf("service: failed to issue token: %w", err)
	}
	return token, u, nil
}

func (s *service) GetUserByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.FromString(id); err != nil {
		return nil, ErrNotFound
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", id, err)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, id string, profile Profile) (*User, error) {
	if err := validateAddress(profile.Address); err != nil {
		return nil, err
	}
	if _, err := uuid.FromString(id); err != nil {
		return nil, ErrNotFound
	}

	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	profile.Phone = strings.TrimSpace(profile.Phone)
	profile.Address = Address{
		Street:     strings.TrimSpace(profile.Address.Street),
		PostalCode: strings.TrimSpace(profile.Address.PostalCode),
		City:       strings.TrimSpace(profile.Address.City),
		Country:    strings.TrimSpace(profile.Address.Country),
	}

	u, err := s.repo.UpdateProfile(ctx, id, profile)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to update user by id '%s': %w", id, err)
	}
	return u, nil
}

// ChangePassword checks the new password before touching storage, then
// verifies the current one.
func (s *service) ChangePassword(ctx context.Context, id string, change PasswordChange) error {
	if err := ValidatePassword(change.New); err != nil {
		return err
	}
	if change.New != change.Confirmation {
		return ErrPasswordMismatch
	}

	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(change.Current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.New), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("service: failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to update password for user '%s': %w", id, err)
	}

	log.Info().Str("user_id", id).Msg("service: password changed")
	return nil
}

func (s *service) ParseToken(raw string) (*Claims, error) {
	return s.tokens.Parse(raw)
}
