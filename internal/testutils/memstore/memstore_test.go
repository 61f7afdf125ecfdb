package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

func TestStore_Begin(t *testing.T) {
	userID := uuid.New()
	credit := func(ctx context.Context, s *Store) error {
		wallets := s.Wallets()
		if err := wallets.CreateIfMissing(ctx, userID); err != nil {
			return err
		}
		w, _ := wallets.GetForUpdate(ctx, userID)
		w.PendingBalance = w.PendingBalance.Add(decimal.NewFromInt(10))
		return wallets.UpdateBalances(ctx, w)
	}

	t.Run("Commit keeps writes", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Begin(context.Background(), func(ctx context.Context) error { return credit(ctx, s) }))

		w, _ := s.Wallets().GetByUserID(context.Background(), userID)
		require.NotNil(t, w)
		assert.True(t, w.PendingBalance.Equal(decimal.NewFromInt(10)))
	})

	t.Run("Error rolls back", func(t *testing.T) {
		s := New()
		err := s.Begin(context.Background(), func(ctx context.Context) error {
			if err := credit(ctx, s); err != nil {
				return err
			}
			return errors.New("boom")
		})
		assert.Error(t, err)

		w, _ := s.Wallets().GetByUserID(context.Background(), userID)
		assert.Nil(t, w)
	})

	t.Run("Nested begin joins and rolls back with the outer", func(t *testing.T) {
		s := New()
		err := s.Begin(context.Background(), func(ctx context.Context) error {
			if err := s.Begin(ctx, func(ctx context.Context) error { return credit(ctx, s) }); err != nil {
				return err
			}
			return errors.New("outer failed")
		})
		assert.Error(t, err)

		w, _ := s.Wallets().GetByUserID(context.Background(), userID)
		assert.Nil(t, w)
	})

	t.Run("Cancelled context rolls back", func(t *testing.T) {
		s := New()
		ctx, cancel := context.WithCancel(context.Background())
		err := s.Begin(ctx, func(ctx context.Context) error {
			err := credit(ctx, s)
			cancel()
			return err
		})
		assert.ErrorIs(t, err, context.Canceled)

		w, _ := s.Wallets().GetByUserID(context.Background(), userID)
		assert.Nil(t, w)
	})

	t.Run("Panic rolls back", func(t *testing.T) {
		s := New()
		assert.Panics(t, func() {
			_ = s.Begin(context.Background(), func(ctx context.Context) error {
				_ = credit(ctx, s)
				panic("boom")
			})
		})

		w, _ := s.Wallets().GetByUserID(context.Background(), userID)
		assert.Nil(t, w)
	})
}

func TestStore_Constraints(t *testing.T) {
	ctx := context.Background()
	s := New()

	project, freelancer := uuid.New(), uuid.New()
	first := &domain.Contract{ID: uuid.New(), ProjectID: project, FreelancerID: freelancer, Status: domain.ContractActive}
	require.NoError(t, s.Contracts().Create(ctx, first))
	assert.ErrorIs(t, s.Contracts().Create(ctx, &domain.Contract{ID: uuid.New(), ProjectID: project, FreelancerID: freelancer}), domain.ErrContractExists)

	require.NoError(t, s.Contracts().UpdateStatus(ctx, first.ID, domain.ContractCancelled))
	assert.NoError(t, s.Contracts().Create(ctx, &domain.Contract{ID: uuid.New(), ProjectID: project, FreelancerID: freelancer}))

	entry := &domain.WalletTransaction{ID: uuid.New(), WalletID: uuid.New(), Type: domain.EntryCredit, ReferenceType: domain.RefEscrowPayment, ReferenceID: uuid.New()}
	require.NoError(t, s.Entries().Append(ctx, entry))
	assert.ErrorIs(t, s.Entries().Append(ctx, entry), domain.ErrDuplicateEntry)

	userID := uuid.New()
	require.NoError(t, s.Wallets().CreateIfMissing(ctx, userID))
	w, _ := s.Wallets().GetByUserID(ctx, userID)
	w.AvailableBalance = decimal.NewFromInt(-1)
	assert.ErrorIs(t, s.Wallets().UpdateBalances(ctx, w), ErrCheckViolation)

	s.FailOn("Entries.Append", errors.New("disk full"))
	assert.Error(t, s.Entries().Append(ctx, &domain.WalletTransaction{ID: uuid.New()}))
	s.FailOn("Entries.Append", nil)
	assert.NoError(t, s.Entries().Append(ctx, &domain.WalletTransaction{ID: uuid.New()}))
}
