package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory UserRepository and CardRepository
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	cards  map[int64]*models.Card
	nextID int64

	// createUserErr overrides CreateUser when set
	createUserErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*models.User{}, cards: map[int64]*models.Card{}}
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createUserErr != nil {
		return m.createUserErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memStore) findUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Username == username })
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Email == email })
}

func (m *memStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.ID == id })
}

func (m *memStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, u := range m.users {
		public := *u
		public.PasswordHash = ""
		users = append(users, public)
	}
	return users, nil
}

func (m *memStore) CreateCard(_ context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.CardNumber == card.CardNumber {
			return repository.ErrDuplicateCardNumber
		}
	}
	if card.Balance < 0 {
		return repository.ErrNegativeBalance
	}
	m.nextID++
	card.ID = m.nextID
	card.IsActive = true
	card.CreatedAt = time.Now()
	stored := *card
	m.cards[card.ID] = &stored
	return nil
}

func (m *memStore) FindCardByID(_ context.Context, id int64) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, repository.ErrCardNotFound
	}
	found := *c
	return &found, nil
}

func (m *memStore) FindCardByNumber(_ context.Context, number string) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.CardNumber == number {
			found := *c
			return &found, nil
		}
	}
	return nil, repository.ErrCardNotFound
}

func (m *memStore) ListCardsByUser(_ context.Context, userID int64) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cards := []models.Card{}
	for _, c := range m.cards {
		if c.UserID == userID {
			cards = append(cards, *c)
		}
	}
	return cards, nil
}

func (m *memStore) UpdateCard(_ context.Context, id int64, upd models.CardUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return repository.ErrCardNotFound
	}
	if upd.CardHolderName != nil {
		c.CardHolderName = *upd.CardHolderName
	}
	if upd.ExpiryDate != nil {
		c.ExpiryDate = *upd.ExpiryDate
	}
	if upd.IsActive != nil {
		c.IsActive = *upd.IsActive
	}
	return nil
}

func (m *memStore) UpdateCardBalance(_ context.Context, id int64, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return repository.ErrCardNotFound
	}
	if balance < 0 {
		return repository.ErrNegativeBalance
	}
	c.Balance = balance
	return nil
}

func (m *memStore) DeleteCard(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return repository.ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

func (m *memStore) DeactivateExpiredCards(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.cards {
		expiry, err := time.Parse("01/06", c.ExpiryDate)
		if err != nil {
			continue
		}
		if c.IsActive && !expiry.AddDate(0, 1, 0).After(now) {
			c.IsActive = false
			n++
		}
	}
	return n, nil
}

// recordingNotifier captures notifications and can be told to fail
type recordingNotifier struct {
	mu      sync.Mutex
	welcome []models.User
	added   []models.Card
	err     error
}

func (r *recordingNotifier) Welcome(user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.welcome = append(r.welcome, user)
	return r.err
}

func (r *recordingNotifier) CardAdded(_ models.User, card models.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, card)
	return r.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testCredentials() *CredentialService {
	return NewCredentialService("test-secret", time.Hour, bcrypt.MinCost)
}
