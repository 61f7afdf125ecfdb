package entryrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
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

var columns = []string{
	"id", "wallet_id", "type", "balance_type", "amount", "description",
	"reference_type", "reference_id", "balance_after", "created_at",
}

func TestRepository_Append(t *testing.T) {
	ctx := context.Background()
	repo, mock := NewMock(t)
	entry := &domain.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      uuid.New(),
		Type:          domain.EntryCredit,
		BalanceType:   domain.BalancePending,
		Amount:        decimal.RequireFromString("500"),
		ReferenceType: domain.RefEscrowPayment,
		ReferenceID:   uuid.New(),
		BalanceAfter:  decimal.RequireFromString("500"),
		CreatedAt:     time.Now(),
	}
	query := regexp.QuoteMeta(`INSERT INTO wallet_transactions (id, wallet_id, type`)
	args := []any{
		entry.ID, entry.WalletID, "credit", "pending", pgxmock.AnyArg(), "",
		"escrow_payment", entry.ReferenceID, pgxmock.AnyArg(), pgxmock.AnyArg(),
	}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr error
		anyErr    bool
	}{
		{
			name: "Entry appended",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Duplicate reference",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			expectErr: domain.ErrDuplicateEntry,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnError(errors.New("database error"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Append(ctx, entry)
			switch {
			case tt.expectErr != nil:
				assert.ErrorIs(t, err, tt.expectErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, mock := NewMock(t)
	walletID, ref := uuid.New(), uuid.New()
	now := time.Now()
	amount := decimal.RequireFromString("500")
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	rows := func() *pgxmock.Rows {
		return pgxmock.NewRows(columns).
			AddRow(ids[0], walletID, "release", "available", amount, "release", "escrow_release", ref, amount, now).
			AddRow(ids[1], walletID, "credit", "pending", amount, "", "escrow_payment", ref, amount, now)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`)).
		WithArgs(walletID, 20, 0).
		WillReturnRows(rows())
	page, err := repo.ListByWallet(ctx, walletID, 20, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, domain.WalletTransaction{
		ID: ids[0], WalletID: walletID, Type: domain.EntryRelease, BalanceType: domain.BalanceAvailable,
		Amount: amount, Description: "release", ReferenceType: domain.RefEscrowRelease, ReferenceID: ref,
		BalanceAfter: amount, CreatedAt: now,
	}, page[0])

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at ASC, id ASC`)).
		WithArgs(walletID).
		WillReturnRows(rows())
	all, err := repo.ListAllByWallet(ctx, walletID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, domain.EntryCredit, all[1].Type)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM wallet_transactions`)).
		WithArgs(walletID).
		WillReturnError(errors.New("database error"))
	_, err = repo.ListAllByWallet(ctx, walletID)
	assert.Error(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM wallet_transactions`)).
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(ids[0], walletID, "credit", "pending", "not-a-decimal", "", "escrow_payment", ref, amount, now))
	_, err = repo.ListAllByWallet(ctx, walletID)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
