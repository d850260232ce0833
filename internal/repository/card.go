package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/card-service/internal/database"
	"github.com/Dan9191/card-service/internal/models"
)

const cardColumns = `id, user_id, card_number, card_holder_name, expiry_date, cvv, card_type, balance, is_active, created_at`

// CreateCard inserts a new card and fills in its id, active flag and creation time
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (user_id, card_number, card_holder_name, expiry_date, cvv, card_type, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, created_at`
	err := r.db.InsertReturning(ctx, query,
		[]interface{}{card.UserID, card.CardNumber, card.CardHolderName, card.ExpiryDate, card.CVV, card.CardType, card.Balance},
		&card.ID, &card.IsActive, &card.CreatedAt)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		if database.CheckViolation(err) {
			return ErrNegativeBalance
		}
		if database.OutOfRange(err) {
			return ErrValueOutOfRange
		}
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindCardByID retrieves a card by id
func (r *Repository) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	card := &models.Card{}
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	err := r.db.Get(ctx, card, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card %d: %w", id, err)
	}
	return card, nil
}

// FindCardByNumber retrieves a card by its card number
func (r *Repository) FindCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	card := &models.Card{}
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_number = $1`
	err := r.db.Get(ctx, card, query, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card by number: %w", err)
	}
	return card, nil
}

// ListCardsByUser returns the cards owned by a user
func (r *Repository) ListCardsByUser(ctx context.Context, userID int64) ([]models.Card, error) {
	cards := []models.Card{}
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY id`
	if err := r.db.Select(ctx, &cards, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list cards for user %d: %w", userID, err)
	}
	return cards, nil
}

// UpdateCard applies a partial update. NULL parameters keep the stored value.
func (r *Repository) UpdateCard(ctx context.Context, id int64, upd models.CardUpdate) error {
	query := `
		UPDATE cards
		SET card_holder_name = COALESCE($1, card_holder_name),
		    expiry_date = COALESCE($2, expiry_date),
		    is_active = COALESCE($3, is_active)
		WHERE id = $4`
	res, err := r.db.Exec(ctx, query, upd.CardHolderName, upd.ExpiryDate, upd.IsActive, id)
	if err != nil {
		if database.OutOfRange(err) {
			return ErrValueOutOfRange
		}
		return fmt.Errorf("failed to update card %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// UpdateCardBalance sets the balance of a card
func (r *Repository) UpdateCardBalance(ctx context.Context, id int64, balance float64) error {
	res, err := r.db.Exec(ctx, `UPDATE cards SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		if database.CheckViolation(err) {
			return ErrNegativeBalance
		}
		if database.OutOfRange(err) {
			return ErrValueOutOfRange
		}
		return fmt.Errorf("failed to update balance of card %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DeleteCard removes a card
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DeactivateExpiredCards marks active cards whose expiry month ended before
// now as inactive and returns how many were changed.
func (r *Repository) DeactivateExpiredCards(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE cards
		SET is_active = FALSE
		WHERE is_active
		  AND to_date(expiry_date, 'MM/YY') + INTERVAL '1 month' <= $1`
	res, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired cards: %w", err)
	}
	return res.RowsAffected, nil
}
