package service

import (
	"context"
	"time"

	"github.com/Dan9191/card-service/internal/models"
)

// UserRepository is the user storage used by the services
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CardRepository is the card storage used by CardService
type CardRepository interface {
	CreateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id int64) (*models.Card, error)
	FindCardByNumber(ctx context.Context, number string) (*models.Card, error)
	ListCardsByUser(ctx context.Context, userID int64) ([]models.Card, error)
	UpdateCard(ctx context.Context, id int64, upd models.CardUpdate) error
	UpdateCardBalance(ctx context.Context, id int64, balance float64) error
	DeleteCard(ctx context.Context, id int64) error
	DeactivateExpiredCards(ctx context.Context, now time.Time) (int64, error)
}

// Notifier delivers user notifications. Failures never fail the request
// that triggered them.
type Notifier interface {
	Welcome(user models.User) error
	CardAdded(user models.User, card models.Card) error
}
