package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, profile Profile) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const userColumns = `
	id::text, first_name, last_name, email, password_hash, role, phone,
	street, postal_code, city, country, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Phone,
		&u.Address.Street,
		&u.Address.PostalCode,
		&u.Address.City,
		&u.Address.Country,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, user *User) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate user id: %w", err)
	}

	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = RoleCustomer
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, phone,
			street, postal_code, city, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id.String(),
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Phone,
		user.Address.Street,
		user.Address.PostalCode,
		user.Address.City,
		user.Address.Country,
		now,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			log.Warn().Str("email", user.Email).Msg("repository: user with this email already exists")
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}

	user.ID = id.String()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by id %s: %w", id, err)
	}
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by email: %w", err)
	}
	return u, nil
}

func (r *repository) UpdateProfile(ctx context.Context, id string, profile Profile) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3,
			street = $4, postal_code = $5, city = $6, country = $7,
			updated_at = $8
		WHERE id = $9
		RETURNING `+userColumns,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		profile.Address.Street,
		profile.Address.PostalCode,
		profile.Address.City,
		profile.Address.Country,
		time.Now().UTC(),
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to update user %s: %w", id, err)
	}
	return u, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update password for user %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
