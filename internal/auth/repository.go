package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `"id","username","first_name","last_name","email","password_hash","is_verified","two_factor_enabled","two_factor_method","two_factor_secret","created_at","updated_at"`

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *User) (*User, error) {
	id := uuid.NewString()

	row := r.DB.QueryRow(ctx, `
		INSERT INTO users
		("id","username","first_name","last_name","email","password_hash","is_verified")
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+userColumns,
		id, u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsVerified)

	user, err := scanUser(row)
	if isUniqueViolation(err) {
		// Two signups racing past the exists check; the index is the
		// authority.
		return nil, ErrAlreadyExists
	}
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER("email")=LOWER($1)
	`, email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER("username")=LOWER($1)
	`, username)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE LOWER("email")=LOWER($1) LIMIT 1`, email)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE LOWER("username")=LOWER($1) LIMIT 1`, username)
}

func (r *UserRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var dummy int
	if err := r.DB.QueryRow(ctx, query, arg).Scan(&dummy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *UserRepository) SetVerified(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE users SET "is_verified"=TRUE, "updated_at"=NOW() WHERE "id"=$1
	`, userID)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE users SET "password_hash"=$1, "updated_at"=NOW() WHERE "id"=$2
	`, passwordHash, userID)
	return err
}

// SetTwoFactorMethod stages a pending 2FA setup; the flag flips on via
// EnableTwoFactor once a code has been validated.
func (r *UserRepository) SetTwoFactorMethod(ctx context.Context, userID, method string, secret *string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE users
		SET "two_factor_method"=$1, "two_factor_secret"=$2, "updated_at"=NOW()
		WHERE "id"=$3
	`, method, secret, userID)
	return err
}

func (r *UserRepository) EnableTwoFactor(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE users SET "two_factor_enabled"=TRUE, "updated_at"=NOW() WHERE "id"=$1
	`, userID)
	return err
}

func (r *UserRepository) DisableTwoFactor(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE users
		SET "two_factor_enabled"=FALSE,
		    "two_factor_method"=NULL,
		    "two_factor_secret"=NULL,
		    "updated_at"=NOW()
		WHERE "id"=$1
	`, userID)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		id               string
		username         string
		firstName        string
		lastName         string
		email            string
		passwordHash     string
		isVerified       bool
		twoFactorEnabled bool
		twoFactorMethod  sql.NullString
		twoFactorSecret  sql.NullString
		createdAt        time.Time
		updatedAt        time.Time
	)

	if err := row.Scan(
		&id,
		&username,
		&firstName,
		&lastName,
		&email,
		&passwordHash,
		&isVerified,
		&twoFactorEnabled,
		&twoFactorMethod,
		&twoFactorSecret,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	return &User{
		ID:               id,
		Username:         username,
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		PasswordHash:     passwordHash,
		IsVerified:       isVerified,
		TwoFactorEnabled: twoFactorEnabled,
		TwoFactorMethod:  nullStringPtr(twoFactorMethod),
		TwoFactorSecret:  nullStringPtr(twoFactorSecret),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}
