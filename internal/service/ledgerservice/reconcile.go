package ledgerservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
)

// Balances is one view of a wallet's three buckets.
type Balances struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Earned    decimal.Decimal `json:"total_earned"`
}

// Report compares the stored wallet with a replay of its ledger.
type Report struct {
	WalletID   uuid.UUID       `json:"wallet_id"`
	Stored     Balances        `json:"stored"`
	Replayed   Balances        `json:"replayed"`
	Reserved   decimal.Decimal `json:"reserved"`
	Entries    int             `json:"entries"`
	Consistent bool            `json:"consistent"`
}

// Replay folds ledger entries into the balances they imply. Open withdrawal
// reservations are not ledger entries and are not part of the result.
func Replay(entries []domain.WalletTransaction) Balances {
	b := Balances{Available: decimal.Zero, Pending: decimal.Zero, Earned: decimal.Zero}
	for _, e := range entries {
		switch e.Type {
		case domain.EntryCredit:
			if e.BalanceType == domain.BalancePending {
				b.Pending = b.Pending.Add(e.Amount)
			} else {
				b.Available = b.Available.Add(e.Amount)
			}
		case domain.EntryRelease:
			b.Pending = b.Pending.Sub(e.Amount)
			b.Available = b.Available.Add(e.Amount)
			b.Earned = b.Earned.Add(e.Amount)
		case domain.EntryRefund:
			b.Pending = b.Pending.Sub(e.Amount)
		case domain.EntryWithdrawal, domain.EntryFee:
			b.Available = b.Available.Sub(e.Amount)
		}
	}
	return b
}

// Reconcile replays the user's ledger and checks it against the stored wallet.
// A mismatch is returned as ErrLedgerMismatch together with the report.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (*Report, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entryRepo.ListAllByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.reservations.SumOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		WalletID: wallet.ID,
		Stored: Balances{
			Available: wallet.AvailableBalance,
			Pending:   wallet.PendingBalance,
			Earned:    wallet.TotalEarned,
		},
		Replayed: Replay(entries),
		Reserved: reserved,
		Entries:  len(entries),
	}
	report.Consistent = report.Replayed.Pending.Equal(report.Stored.Pending) &&
		report.Replayed.Earned.Equal(report.Stored.Earned) &&
		report.Replayed.Available.Sub(reserved).Equal(report.Stored.Available)

	if !report.Consistent {
		metrics.LedgerInconsistencies.Inc()
		zap.L().Error("ledger mismatch", zap.Stringer("user_id", userID), zap.Any("report", report))
		return report, domain.ErrLedgerMismatch
	}
	return report, nil
}
