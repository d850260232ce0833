package repository

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/card-service/internal/database"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardRowColumns = []string{"id", "user_id", "card_number", "card_holder_name", "expiry_date", "cvv", "card_type", "balance", "is_active", "created_at"}

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	db := database.New(sqlx.NewDb(conn, "postgres"), log, 1, time.Millisecond)
	return NewRepository(db), mock
}

func TestCreateUser(t *testing.T) {
	repo, mock := newTestRepository(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, created))

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateMapping(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_username_key", ErrDuplicateUsername},
		{"users_email_key", ErrDuplicateEmail},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newTestRepository(t)
			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := repo.CreateUser(context.Background(), &models.User{Username: "alice"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFindUserByUsername(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(1, "alice", "alice@example.com", "hash", time.Now()))

	user, err := repo.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByID_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("FROM users").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}))

	_, err := repo.FindUserByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers_Empty(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT id, username, email, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "created_at"}))

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestCreateCard(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO cards").
		WithArgs(int64(1), "4532000000000001", "Alice", "12/30", "cvvhash", "Visa", 1000.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "created_at"}).AddRow(3, true, time.Now()))

	card := &models.Card{
		UserID:         1,
		CardNumber:     "4532000000000001",
		CardHolderName: "Alice",
		ExpiryDate:     "12/30",
		CVV:            "cvvhash",
		CardType:       models.CardTypeVisa,
		Balance:        1000,
	}
	require.NoError(t, repo.CreateCard(context.Background(), card))
	assert.Equal(t, int64(3), card.ID)
	assert.True(t, card.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCard_Violations(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO cards").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "cards_card_number_key"})
	err := repo.CreateCard(context.Background(), &models.Card{})
	assert.ErrorIs(t, err, ErrDuplicateCardNumber)

	mock.ExpectQuery("INSERT INTO cards").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "cards_balance_check"})
	err = repo.CreateCard(context.Background(), &models.Card{Balance: -1})
	assert.ErrorIs(t, err, ErrNegativeBalance)

	mock.ExpectQuery("INSERT INTO cards").
		WillReturnError(&pq.Error{Code: "22001", Message: "value too long for type character varying(255)"})
	err = repo.CreateCard(context.Background(), &models.Card{})
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestValueOutOfRangeMapping(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "22001"})
	assert.ErrorIs(t, repo.CreateUser(context.Background(), &models.User{}), ErrValueOutOfRange)

	mock.ExpectExec("UPDATE cards").
		WillReturnError(&pq.Error{Code: "22001"})
	assert.ErrorIs(t, repo.UpdateCard(context.Background(), 3, models.CardUpdate{}), ErrValueOutOfRange)

	mock.ExpectExec("UPDATE cards SET balance").
		WillReturnError(&pq.Error{Code: "22003", Message: "numeric field overflow"})
	assert.ErrorIs(t, repo.UpdateCardBalance(context.Background(), 3, 1e13), ErrValueOutOfRange)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCardByID(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("FROM cards WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(cardRowColumns).
			AddRow(3, 1, "4532000000000001", "Alice", "12/30", "cvvhash", "Visa", 1000.0, true, time.Now()))

	card, err := repo.FindCardByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), card.UserID)
	assert.Equal(t, 1000.0, card.Balance)
}

func TestFindCardByID_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("FROM cards").WillReturnRows(sqlmock.NewRows(cardRowColumns))

	_, err := repo.FindCardByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestListCardsByUser(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("FROM cards WHERE user_id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cardRowColumns).
			AddRow(3, 1, "4532000000000001", "Alice", "12/30", "h", "Visa", 10.0, true, time.Now()).
			AddRow(4, 1, "5500000000000004", "Alice", "01/29", "h", "MasterCard", 0.0, false, time.Now()))

	cards, err := repo.ListCardsByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestUpdateCard_PassesNullsThrough(t *testing.T) {
	repo, mock := newTestRepository(t)

	name := "Alice Smith"
	mock.ExpectExec("COALESCE").
		WithArgs("Alice Smith", nil, nil, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCard(context.Background(), 3, models.CardUpdate{CardHolderName: &name})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCard_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec("UPDATE cards").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCard(context.Background(), 3, models.CardUpdate{})
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestUpdateCardBalance(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cards SET balance = $1 WHERE id = $2")).
		WithArgs(1500.0, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateCardBalance(context.Background(), 3, 1500))

	mock.ExpectExec("UPDATE cards SET balance").
		WillReturnError(&pq.Error{Code: "23514"})
	assert.ErrorIs(t, repo.UpdateCardBalance(context.Background(), 3, -5), ErrNegativeBalance)
}

func TestDeleteCard(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cards WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteCard(context.Background(), 3))

	mock.ExpectExec("DELETE FROM cards").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteCard(context.Background(), 3), ErrCardNotFound)
}

func TestDeactivateExpiredCards(t *testing.T) {
	repo, mock := newTestRepository(t)
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("SET is_active = FALSE").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeactivateExpiredCards(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestWrapsUnexpectedErrors(t *testing.T) {
	repo, mock := newTestRepository(t)
	boom := errors.New("connection reset")

	mock.ExpectExec("DELETE FROM cards").WillReturnError(boom)

	err := repo.DeleteCard(context.Background(), 3)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to delete card 3")
}
