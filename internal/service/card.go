package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dan9191/card-service/internal/apperror"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	balanceTooLarge = "Balance must not exceed 999999999999.99"
	valueOutOfRange = "Value is too long or too large"
)

// CardInput holds the fields of a new card
type CardInput struct {
	CardNumber     string
	CardHolderName string
	ExpiryDate     string
	CVV            string
	CardType       string
	Balance        *float64
}

// CardService manages cards on behalf of their owners
type CardService struct {
	cards    CardRepository
	users    UserRepository
	creds    *CredentialService
	notifier Notifier
	log      *logrus.Logger
}

// NewCardService initializes a new card service
func NewCardService(cards CardRepository, users UserRepository, creds *CredentialService, notifier Notifier, log *logrus.Logger) *CardService {
	return &CardService{cards: cards, users: users, creds: creds, notifier: notifier, log: log}
}

// Create stores a new card for the owner. The CVV is kept only as a hash.
func (s *CardService) Create(ctx context.Context, ownerID int64, in CardInput) (*models.Card, error) {
	if _, err := s.cards.FindCardByNumber(ctx, in.CardNumber); err == nil {
		return nil, apperror.Conflict("Card number already exists")
	} else if !errors.Is(err, repository.ErrCardNotFound) {
		return nil, err
	}

	var balance float64
	if in.Balance != nil {
		balance = models.RoundBalance(*in.Balance)
	}
	if balance < 0 {
		return nil, apperror.BadRequest("Balance must be a non-negative number")
	}
	if balance > models.MaxBalance {
		return nil, apperror.BadRequest(balanceTooLarge)
	}

	cvvHash, err := s.creds.HashPassword(in.CVV)
	if err != nil {
		return nil, err
	}

	card := &models.Card{
		UserID:         ownerID,
		CardNumber:     in.CardNumber,
		CardHolderName: strings.TrimSpace(in.CardHolderName),
		ExpiryDate:     in.ExpiryDate,
		CVV:            cvvHash,
		CardType:       in.CardType,
		Balance:        balance,
	}
	if err := s.cards.CreateCard(ctx, card); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateCardNumber):
			return nil, apperror.Conflict("Card number already exists")
		case errors.Is(err, repository.ErrNegativeBalance):
			return nil, apperror.BadRequest("Balance must be a non-negative number")
		case errors.Is(err, repository.ErrValueOutOfRange):
			return nil, apperror.BadRequest(valueOutOfRange)
		}
		return nil, err
	}

	s.log.Infof("Card %s created for user %d", utils.MaskCardNumber(card.CardNumber), ownerID)
	s.notifyCardAdded(ctx, card)
	return card, nil
}

func (s *CardService) notifyCardAdded(ctx context.Context, card *models.Card) {
	owner, err := s.users.FindUserByID(ctx, card.UserID)
	if err != nil {
		s.log.WithError(err).Warnf("Failed to load owner of card %d for notification", card.ID)
		return
	}
	if err := s.notifier.CardAdded(*owner, *card); err != nil {
		s.log.WithError(err).Warnf("Failed to send card notification to user %d", owner.ID)
	}
}

// ListMine returns the caller's cards
func (s *CardService) ListMine(ctx context.Context, ownerID int64) ([]models.Card, error) {
	return s.cards.ListCardsByUser(ctx, ownerID)
}

// authorize loads a card and checks that the caller owns it
func (s *CardService) authorize(ctx context.Context, id, callerID int64) (*models.Card, error) {
	card, err := s.cards.FindCardByID(ctx, id)
	if errors.Is(err, repository.ErrCardNotFound) {
		return nil, apperror.NotFound("Card not found")
	}
	if err != nil {
		return nil, err
	}
	if card.UserID != callerID {
		s.log.Warnf("User %d denied access to card %d", callerID, id)
		return nil, apperror.Forbidden("Access denied")
	}
	return card, nil
}

// GetOne returns a card owned by the caller
func (s *CardService) GetOne(ctx context.Context, id, callerID int64) (*models.Card, error) {
	return s.authorize(ctx, id, callerID)
}

// Update applies a partial update and returns the stored card. Nil fields
// keep their current value.
func (s *CardService) Update(ctx context.Context, id, callerID int64, upd models.CardUpdate) (*models.Card, error) {
	if _, err := s.authorize(ctx, id, callerID); err != nil {
		return nil, err
	}
	if upd.CardHolderName != nil {
		name := strings.TrimSpace(*upd.CardHolderName)
		upd.CardHolderName = &name
	}

	if err := s.cards.UpdateCard(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrCardNotFound):
			return nil, apperror.NotFound("Card not found")
		case errors.Is(err, repository.ErrValueOutOfRange):
			return nil, apperror.BadRequest(valueOutOfRange)
		}
		return nil, err
	}

	card, err := s.cards.FindCardByID(ctx, id)
	if errors.Is(err, repository.ErrCardNotFound) {
		return nil, apperror.NotFound("Card not found")
	}
	if err != nil {
		return nil, err
	}
	s.log.Infof("Card %d updated by user %d", id, callerID)
	return card, nil
}

// UpdateBalance sets the balance of a card owned by the caller. Ownership is
// checked before the amount.
func (s *CardService) UpdateBalance(ctx context.Context, id, callerID int64, balance *float64) (float64, error) {
	if _, err := s.authorize(ctx, id, callerID); err != nil {
		return 0, err
	}
	if balance == nil || *balance < 0 {
		return 0, apperror.BadRequest("Valid balance is required")
	}
	amount := models.RoundBalance(*balance)
	if amount > models.MaxBalance {
		return 0, apperror.BadRequest(balanceTooLarge)
	}

	if err := s.cards.UpdateCardBalance(ctx, id, amount); err != nil {
		switch {
		case errors.Is(err, repository.ErrCardNotFound):
			return 0, apperror.NotFound("Card not found")
		case errors.Is(err, repository.ErrNegativeBalance), errors.Is(err, repository.ErrValueOutOfRange):
			return 0, apperror.BadRequest("Valid balance is required")
		}
		return 0, err
	}

	s.log.Infof("Balance of card %d set to %.2f", id, amount)
	return amount, nil
}

// Delete removes a card owned by the caller
func (s *CardService) Delete(ctx context.Context, id, callerID int64) error {
	if _, err := s.authorize(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.cards.DeleteCard(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return apperror.NotFound("Card not found")
		}
		return err
	}
	s.log.Infof("Card %d deleted by user %d", id, callerID)
	return nil
}

// DeactivateExpired marks cards whose expiry month has ended as inactive
func (s *CardService) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.cards.DeactivateExpiredCards(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("Deactivated %d expired cards", n)
	}
	return n, nil
}
