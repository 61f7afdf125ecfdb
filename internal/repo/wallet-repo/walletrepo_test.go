package walletrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := New(mockDB)

	return repo, mockDB
}

var columns = []string{"id", "user_id", "available_balance", "pending_balance", "total_earned", "created_at", "updated_at"}

func TestRepository_CreateIfMissing(t *testing.T) {
	ctx := context.Background()
	repo, mock := NewMock(t)
	userID := uuid.New()
	query := regexp.QuoteMeta(`ON CONFLICT (user_id) DO NOTHING`)

	mock.ExpectExec(query).
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	assert.NoError(t, repo.CreateIfMissing(ctx, userID))

	mock.ExpectExec(query).
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	assert.NoError(t, repo.CreateIfMissing(ctx, userID))

	mock.ExpectExec(query).
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg()).
		WillReturnError(errors.New("database error"))
	assert.Error(t, repo.CreateIfMissing(ctx, userID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo, mock := NewMock(t)
	now := time.Now()
	id, userID := uuid.New(), uuid.New()
	available, pending, earned := decimal.RequireFromString("100"), decimal.RequireFromString("400"), decimal.RequireFromString("100")

	tests := []struct {
		name      string
		forUpdate bool
		mockSetup func()
		expectErr bool
		result    *domain.Wallet
	}{
		{
			name: "Wallet found",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM wallets WHERE user_id = $1`)).
					WithArgs(userID).
					WillReturnRows(pgxmock.NewRows(columns).AddRow(id, userID, available, pending, earned, now, now))
			},
			result: &domain.Wallet{
				ID: id, UserID: userID, AvailableBalance: available, PendingBalance: pending,
				TotalEarned: earned, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name:      "Wallet locked",
			forUpdate: true,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM wallets WHERE user_id = $1 FOR UPDATE`)).
					WithArgs(userID).
					WillReturnRows(pgxmock.NewRows(columns).AddRow(id, userID, available, pending, earned, now, now))
			},
			result: &domain.Wallet{
				ID: id, UserID: userID, AvailableBalance: available, PendingBalance: pending,
				TotalEarned: earned, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "No wallet",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM wallets WHERE user_id = $1`)).
					WithArgs(userID).
					WillReturnRows(pgxmock.NewRows(columns))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM wallets WHERE user_id = $1`)).
					WithArgs(userID).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			var (
				result *domain.Wallet
				err    error
			)
			if tt.forUpdate {
				result, err = repo.GetForUpdate(ctx, userID)
			} else {
				result, err = repo.GetByUserID(ctx, userID)
			}

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_UpdateBalances(t *testing.T) {
	ctx := context.Background()
	repo, mock := NewMock(t)
	wallet := &domain.Wallet{
		ID:               uuid.New(),
		AvailableBalance: decimal.RequireFromString("500"),
		PendingBalance:   decimal.Zero,
		TotalEarned:      decimal.RequireFromString("500"),
		UpdatedAt:        time.Now(),
	}
	query := regexp.QuoteMeta(`UPDATE wallets SET available_balance = $1, pending_balance = $2, total_earned = $3, updated_at = $4 WHERE id = $5`)

	mock.ExpectExec(query).
		WithArgs(wallet.AvailableBalance, wallet.PendingBalance, wallet.TotalEarned, wallet.UpdatedAt, wallet.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.UpdateBalances(ctx, wallet))

	mock.ExpectExec(query).
		WithArgs(wallet.AvailableBalance, wallet.PendingBalance, wallet.TotalEarned, wallet.UpdatedAt, wallet.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateBalances(ctx, wallet), domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
