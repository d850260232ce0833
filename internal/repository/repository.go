package repository

import (
	"context"
	"errors"

	"github.com/Dan9191/card-service/internal/database"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateCardNumber = errors.New("card number already exists")
	ErrNegativeBalance     = errors.New("balance must not be negative")
	ErrValueOutOfRange     = errors.New("value does not fit its column")
)

// Store is the subset of the persistence gateway the repository uses
type Store interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (database.Result, error)
	InsertReturning(ctx context.Context, query string, args []interface{}, dest ...interface{}) error
}

// Repository provides database operations
type Repository struct {
	db Store
}

// NewRepository initializes a new repository
func NewRepository(db Store) *Repository {
	return &Repository{db: db}
}

// duplicateError maps a unique constraint name to its sentinel error
func duplicateError(err error) error {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case "users_username_key":
		return ErrDuplicateUsername
	case "users_email_key":
		return ErrDuplicateEmail
	case "cards_card_number_key":
		return ErrDuplicateCardNumber
	}
	return nil
}
