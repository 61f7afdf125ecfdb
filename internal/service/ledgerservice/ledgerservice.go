package ledgerservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type WalletRepo interface {
	CreateIfMissing(ctx context.Context, userID uuid.UUID) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalances(ctx context.Context, wallet *domain.Wallet) error
}

type EntryRepo interface {
	Append(ctx context.Context, entry *domain.WalletTransaction) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error)
	ListAllByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.WalletTransaction, error)
}

type ReservationRepo interface {
	SumOpenByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type Service struct {
	txManager    pg.TXManager
	walletRepo   WalletRepo
	entryRepo    EntryRepo
	reservations ReservationRepo
}

func New(txManager pg.TXManager, walletRepo WalletRepo, entryRepo EntryRepo, reservations ReservationRepo) *Service {
	return &Service{
		txManager:    txManager,
		walletRepo:   walletRepo,
		entryRepo:    entryRepo,
		reservations: reservations,
	}
}

// Credit adds amount to the user's pending or available bucket, creating the
// wallet on first use.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference, toPending bool) (*domain.WalletTransaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.WalletTransaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.walletRepo.CreateIfMissing(ctx, userID); err != nil {
			return err
		}
		wallet, err := s.lockWallet(ctx, userID)
		if err != nil {
			return err
		}

		balance, after := domain.BalanceAvailable, &wallet.AvailableBalance
		if toPending {
			balance, after = domain.BalancePending, &wallet.PendingBalance
		}
		*after = after.Add(amount)

		entry, err = s.apply(ctx, wallet, domain.EntryCredit, balance, amount, ref, *after)
		return err
	})
	if err != nil {
		zap.L().Error("failed to credit wallet", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(domain.EntryCredit)).Inc()
	return entry, nil
}

// MoveFromPendingToAvailable settles released escrow funds: pending shrinks,
// available and total earned grow by the same amount.
func (s *Service) MoveFromPendingToAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.WalletTransaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.ensurePending(wallet, userID, amount, ref); err != nil {
			return err
		}

		wallet.PendingBalance = wallet.PendingBalance.Sub(amount)
		wallet.AvailableBalance = wallet.AvailableBalance.Add(amount)
		wallet.TotalEarned = wallet.TotalEarned.Add(amount)

		entry, err = s.apply(ctx, wallet, domain.EntryRelease, domain.BalanceAvailable, amount, ref, wallet.AvailableBalance)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(domain.EntryRelease)).Inc()
	return entry, nil
}

// ReversePending takes refunded escrow funds back out of the pending bucket.
func (s *Service) ReversePending(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.WalletTransaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.ensurePending(wallet, userID, amount, ref); err != nil {
			return err
		}

		wallet.PendingBalance = wallet.PendingBalance.Sub(amount)

		entry, err = s.apply(ctx, wallet, domain.EntryRefund, domain.BalancePending, amount, ref, wallet.PendingBalance)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(domain.EntryRefund)).Inc()
	return entry, nil
}

// DebitAvailable removes amount from the available bucket and records it
// under the given entry type.
func (s *Service) DebitAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference, typ domain.EntryType) (*domain.WalletTransaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.WalletTransaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if wallet == nil || wallet.AvailableBalance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		wallet.AvailableBalance = wallet.AvailableBalance.Sub(amount)

		entry, err = s.apply(ctx, wallet, typ, domain.BalanceAvailable, amount, ref, wallet.AvailableBalance)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(typ)).Inc()
	return entry, nil
}

// Reserve holds amount out of the available bucket for a withdrawal request.
// Nothing is written to the ledger until the withdrawal completes.
func (s *Service) Reserve(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if wallet == nil || wallet.AvailableBalance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}
		wallet.AvailableBalance = wallet.AvailableBalance.Sub(amount)
		wallet.UpdatedAt = time.Now()
		return s.walletRepo.UpdateBalances(ctx, wallet)
	})
}

// ReleaseReservation returns a rejected withdrawal's amount to available.
func (s *Service) ReleaseReservation(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.lockWallet(ctx, userID)
		if err != nil {
			return err
		}
		wallet.AvailableBalance = wallet.AvailableBalance.Add(amount)
		wallet.UpdatedAt = time.Now()
		return s.walletRepo.UpdateBalances(ctx, wallet)
	})
}

// RecordWithdrawal writes the ledger entry for a completed withdrawal. The
// amount already left the available bucket when it was reserved.
func (s *Service) RecordWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.WalletTransaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wallet, err := s.lockWallet(ctx, userID)
		if err != nil {
			return err
		}
		entry = newEntry(wallet, domain.EntryWithdrawal, domain.BalanceAvailable, amount, ref, wallet.AvailableBalance)
		return s.entryRepo.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(domain.EntryWithdrawal)).Inc()
	return entry, nil
}

func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	if wallet == nil {
		return nil, domain.ErrNotFound
	}
	return wallet, nil
}

// ListTransactions pages through the user's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entryRepo.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		zap.L().Error("failed to list wallet transactions", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *Service) lockWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet of user %s: %w", userID, domain.ErrNotFound)
	}
	return wallet, nil
}

func (s *Service) ensurePending(wallet *domain.Wallet, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) error {
	pending := decimal.Zero
	if wallet != nil {
		pending = wallet.PendingBalance
	}
	if pending.GreaterThanOrEqual(amount) {
		return nil
	}
	metrics.LedgerInconsistencies.Inc()
	zap.L().Error("pending balance does not cover escrow amount",
		zap.Stringer("user_id", userID),
		zap.Stringer("amount", amount),
		zap.Stringer("pending_balance", pending),
		zap.String("reference_type", string(ref.Type)),
		zap.Stringer("reference_id", ref.ID),
	)
	return domain.ErrInsufficientPendingFunds
}

// apply persists the wallet's new balances and the entry describing the change.
func (s *Service) apply(ctx context.Context, wallet *domain.Wallet, typ domain.EntryType, balance domain.BalanceType,
	amount decimal.Decimal, ref domain.Reference, after decimal.Decimal) (*domain.WalletTransaction, error) {
	wallet.UpdatedAt = time.Now()
	if err := s.walletRepo.UpdateBalances(ctx, wallet); err != nil {
		return nil, err
	}
	entry := newEntry(wallet, typ, balance, amount, ref, after)
	if err := s.entryRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func newEntry(wallet *domain.Wallet, typ domain.EntryType, balance domain.BalanceType,
	amount decimal.Decimal, ref domain.Reference, after decimal.Decimal) *domain.WalletTransaction {
	return &domain.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          typ,
		BalanceType:   balance,
		Amount:        amount,
		Description:   ref.Description,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		BalanceAfter:  after,
		CreatedAt:     time.Now(),
	}
}
