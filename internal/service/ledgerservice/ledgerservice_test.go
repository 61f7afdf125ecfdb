package ledgerservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

type mocks struct {
	wallets      *MockWalletRepo
	entries      *MockEntryRepo
	reservations *MockReservationRepo
}

func NewMock(t *testing.T) (*Service, mocks) {
	ctrl := gomock.NewController(t)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error { return fn(ctx) }).
		AnyTimes()

	m := mocks{
		wallets:      NewMockWalletRepo(ctrl),
		entries:      NewMockEntryRepo(ctrl),
		reservations: NewMockReservationRepo(ctrl),
	}
	return New(txManager, m.wallets, m.entries, m.reservations), m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func wallet(userID uuid.UUID, available, pending, earned string) *domain.Wallet {
	return &domain.Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		AvailableBalance: dec(available),
		PendingBalance:   dec(pending),
		TotalEarned:      dec(earned),
	}
}

func TestCredit(t *testing.T) {
	userID := uuid.New()
	ref := domain.Reference{Type: domain.RefEscrowPayment, ID: uuid.New()}

	tests := []struct {
		name          string
		amount        string
		toPending     bool
		prepareMock   func(m mocks)
		expectedError error
		expectedEntry func(e *domain.WalletTransaction)
	}{
		{
			name:      "Credit to pending creates wallet",
			amount:    "500",
			toPending: true,
			prepareMock: func(m mocks) {
				gomock.InOrder(
					m.wallets.EXPECT().CreateIfMissing(gomock.Any(), userID).Return(nil),
					m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "0", "0", "0"), nil),
					m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).DoAndReturn(
						func(_ context.Context, w *domain.Wallet) error {
							assert.True(t, w.PendingBalance.Equal(dec("500")))
							assert.True(t, w.AvailableBalance.IsZero())
							return nil
						}),
					m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
			expectedEntry: func(e *domain.WalletTransaction) {
				assert.Equal(t, domain.EntryCredit, e.Type)
				assert.Equal(t, domain.BalancePending, e.BalanceType)
				assert.True(t, e.BalanceAfter.Equal(dec("500")))
				assert.Equal(t, ref.ID, e.ReferenceID)
			},
		},
		{
			name:   "Credit to available",
			amount: "10.50",
			prepareMock: func(m mocks) {
				m.wallets.EXPECT().CreateIfMissing(gomock.Any(), userID).Return(nil)
				m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "1", "0", "0"), nil)
				m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).Return(nil)
				m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedEntry: func(e *domain.WalletTransaction) {
				assert.Equal(t, domain.BalanceAvailable, e.BalanceType)
				assert.True(t, e.BalanceAfter.Equal(dec("11.50")))
			},
		},
		{
			name:          "Zero amount",
			amount:        "0",
			prepareMock:   func(m mocks) {},
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:      "Entry insert fails",
			amount:    "5",
			toPending: true,
			prepareMock: func(m mocks) {
				m.wallets.EXPECT().CreateIfMissing(gomock.Any(), userID).Return(nil)
				m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "0", "0", "0"), nil)
				m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).Return(nil)
				m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateEntry)
			},
			expectedError: domain.ErrDuplicateEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			entry, err := service.Credit(context.Background(), userID, dec(tt.amount), ref, tt.toPending)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, entry)
				return
			}
			require.NoError(t, err)
			tt.expectedEntry(entry)
		})
	}
}

func TestMoveFromPendingToAvailable(t *testing.T) {
	userID := uuid.New()
	ref := domain.Reference{Type: domain.RefEscrowRelease, ID: uuid.New()}

	t.Run("Moves funds and grows total earned", func(t *testing.T) {
		service, m := NewMock(t)
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "20", "500", "20"), nil)
		m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
			assert.True(t, w.PendingBalance.IsZero())
			assert.True(t, w.AvailableBalance.Equal(dec("520")))
			assert.True(t, w.TotalEarned.Equal(dec("520")))
			return nil
		})
		m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

		entry, err := service.MoveFromPendingToAvailable(context.Background(), userID, dec("500"), ref)
		require.NoError(t, err)
		assert.Equal(t, domain.EntryRelease, entry.Type)
		assert.True(t, entry.BalanceAfter.Equal(dec("520")))
	})

	t.Run("Pending does not cover amount", func(t *testing.T) {
		service, m := NewMock(t)
		before := testutil.ToFloat64(metrics.LedgerInconsistencies)
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "0", "100", "0"), nil)

		_, err := service.MoveFromPendingToAvailable(context.Background(), userID, dec("500"), ref)
		assert.ErrorIs(t, err, domain.ErrInsufficientPendingFunds)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.LedgerInconsistencies))
	})

	t.Run("Missing wallet", func(t *testing.T) {
		service, m := NewMock(t)
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(nil, nil)

		_, err := service.MoveFromPendingToAvailable(context.Background(), userID, dec("1"), ref)
		assert.ErrorIs(t, err, domain.ErrInsufficientPendingFunds)
	})
}

func TestReversePending(t *testing.T) {
	userID := uuid.New()
	ref := domain.Reference{Type: domain.RefEscrowRefund, ID: uuid.New()}

	service, m := NewMock(t)
	m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "0", "500", "0"), nil)
	m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).Return(nil)
	m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	entry, err := service.ReversePending(context.Background(), userID, dec("500"), ref)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryRefund, entry.Type)
	assert.Equal(t, domain.BalancePending, entry.BalanceType)
	assert.True(t, entry.BalanceAfter.IsZero())
}

func TestDebitAvailable(t *testing.T) {
	userID := uuid.New()
	ref := domain.Reference{Type: domain.RefEscrowFee, ID: uuid.New()}

	tests := []struct {
		name          string
		stored        *domain.Wallet
		expectedError error
	}{
		{name: "Fee charged", stored: wallet(userID, "500", "0", "500")},
		{name: "Not enough available", stored: wallet(userID, "5", "0", "5"), expectedError: domain.ErrInsufficientFunds},
		{name: "No wallet", expectedError: domain.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(tt.stored, nil)
			if tt.expectedError == nil {
				m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).Return(nil)
				m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			}

			entry, err := service.DebitAvailable(context.Background(), userID, dec("25"), ref, domain.EntryFee)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.EntryFee, entry.Type)
			assert.True(t, entry.BalanceAfter.Equal(dec("475")))
		})
	}
}

func TestReservations(t *testing.T) {
	userID := uuid.New()

	t.Run("Reserve takes from available without a ledger entry", func(t *testing.T) {
		service, m := NewMock(t)
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "500", "0", "500"), nil)
		m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
			assert.True(t, w.AvailableBalance.Equal(dec("200")))
			return nil
		})

		assert.NoError(t, service.Reserve(context.Background(), userID, dec("300")))
	})

	t.Run("Reserve over available", func(t *testing.T) {
		service, m := NewMock(t)
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "100", "0", "100"), nil)

		assert.ErrorIs(t, service.Reserve(context.Background(), userID, dec("300")), domain.ErrInsufficientFunds)
	})

	t.Run("Release returns the amount", func(t *testing.T) {
		service, m := NewMock(t)
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "200", "0", "500"), nil)
		m.wallets.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
			assert.True(t, w.AvailableBalance.Equal(dec("500")))
			return nil
		})

		assert.NoError(t, service.ReleaseReservation(context.Background(), userID, dec("300")))
	})

	t.Run("Completed withdrawal is recorded without moving balances", func(t *testing.T) {
		service, m := NewMock(t)
		ref := domain.Reference{Type: domain.RefWithdrawal, ID: uuid.New()}
		m.wallets.EXPECT().GetForUpdate(gomock.Any(), userID).Return(wallet(userID, "200", "0", "500"), nil)
		m.entries.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

		entry, err := service.RecordWithdrawal(context.Background(), userID, dec("300"), ref)
		require.NoError(t, err)
		assert.Equal(t, domain.EntryWithdrawal, entry.Type)
		assert.True(t, entry.BalanceAfter.Equal(dec("200")))
	})
}

func TestListTransactions(t *testing.T) {
	userID := uuid.New()
	stored := wallet(userID, "0", "0", "0")

	tests := []struct {
		name           string
		limit, offset  int
		expectedLimit  int
		expectedOffset int
	}{
		{name: "Default page", limit: 0, offset: 0, expectedLimit: DefaultPageSize, expectedOffset: 0},
		{name: "Capped page", limit: 1000, offset: 40, expectedLimit: MaxPageSize, expectedOffset: 40},
		{name: "Negative offset", limit: 5, offset: -1, expectedLimit: 5, expectedOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.wallets.EXPECT().GetByUserID(gomock.Any(), userID).Return(stored, nil)
			m.entries.EXPECT().ListByWallet(gomock.Any(), stored.ID, tt.expectedLimit, tt.expectedOffset).Return(nil, nil)

			_, err := service.ListTransactions(context.Background(), userID, tt.limit, tt.offset)
			assert.NoError(t, err)
		})
	}

	t.Run("No wallet", func(t *testing.T) {
		service, m := NewMock(t)
		m.wallets.EXPECT().GetByUserID(gomock.Any(), userID).Return(nil, nil)

		_, err := service.ListTransactions(context.Background(), userID, 10, 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReconcile(t *testing.T) {
	userID := uuid.New()
	entry := func(typ domain.EntryType, balance domain.BalanceType, amount string) domain.WalletTransaction {
		return domain.WalletTransaction{Type: typ, BalanceType: balance, Amount: dec(amount)}
	}
	ledger := []domain.WalletTransaction{
		entry(domain.EntryCredit, domain.BalancePending, "500"),
		entry(domain.EntryRelease, domain.BalanceAvailable, "500"),
		entry(domain.EntryFee, domain.BalanceAvailable, "25"),
		entry(domain.EntryCredit, domain.BalancePending, "200"),
		entry(domain.EntryRefund, domain.BalancePending, "200"),
		entry(domain.EntryWithdrawal, domain.BalanceAvailable, "100"),
	}

	tests := []struct {
		name          string
		stored        *domain.Wallet
		reserved      string
		expectedError error
	}{
		{name: "Balances match", stored: wallet(userID, "275", "0", "500"), reserved: "100"},
		{name: "Available drifted", stored: wallet(userID, "375", "0", "500"), reserved: "100", expectedError: domain.ErrLedgerMismatch},
		{name: "Earned drifted", stored: wallet(userID, "275", "0", "400"), reserved: "100", expectedError: domain.ErrLedgerMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.wallets.EXPECT().GetByUserID(gomock.Any(), userID).Return(tt.stored, nil)
			m.entries.EXPECT().ListAllByWallet(gomock.Any(), tt.stored.ID).Return(ledger, nil)
			m.reservations.EXPECT().SumOpenByUser(gomock.Any(), userID).Return(dec(tt.reserved), nil)
			before := testutil.ToFloat64(metrics.LedgerInconsistencies)

			report, err := service.Reconcile(context.Background(), userID)
			require.NotNil(t, report)
			assert.Equal(t, len(ledger), report.Entries)
			assert.True(t, report.Replayed.Available.Equal(dec("375")))
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.False(t, report.Consistent)
				assert.Equal(t, before+1, testutil.ToFloat64(metrics.LedgerInconsistencies))
				return
			}
			assert.NoError(t, err)
			assert.True(t, report.Consistent)
			assert.Equal(t, before, testutil.ToFloat64(metrics.LedgerInconsistencies))
		})
	}

	t.Run("Reservation lookup fails", func(t *testing.T) {
		service, m := NewMock(t)
		stored := wallet(userID, "0", "0", "0")
		m.wallets.EXPECT().GetByUserID(gomock.Any(), userID).Return(stored, nil)
		m.entries.EXPECT().ListAllByWallet(gomock.Any(), stored.ID).Return(nil, nil)
		m.reservations.EXPECT().SumOpenByUser(gomock.Any(), userID).Return(decimal.Zero, errors.New("db error"))

		_, err := service.Reconcile(context.Background(), userID)
		assert.Error(t, err)
	})
}
