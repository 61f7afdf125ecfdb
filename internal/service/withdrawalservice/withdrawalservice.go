package withdrawalservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
	"github.com/GlebRadaev/escrowpay/internal/pg"
	"github.com/GlebRadaev/escrowpay/pkg/validate"
)

type Repo interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	Update(ctx context.Context, w *domain.Withdrawal) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Withdrawal, error)
	ListByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]domain.Withdrawal, error)
}

type Ledger interface {
	Reserve(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	ReleaseReservation(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	RecordWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error)
}

type Publisher interface {
	Publish(events ...domain.Event)
}

type Service struct {
	txManager pg.TXManager
	repo      Repo
	ledger    Ledger
	publisher Publisher
}

func New(txManager pg.TXManager, repo Repo, ledger Ledger, publisher Publisher) *Service {
	return &Service{
		txManager: txManager,
		repo:      repo,
		ledger:    ledger,
		publisher: publisher,
	}
}

// RequestWithdrawal reserves amount from the freelancer's available balance
// and queues a pending payout request.
func (s *Service) RequestWithdrawal(ctx context.Context, actor domain.Actor, amount decimal.Decimal, bank domain.BankDetails) (*domain.Withdrawal, error) {
	if actor.Role != domain.RoleFreelancer {
		return nil, domain.ErrUnauthorized
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateBankDetails(bank); err != nil {
		return nil, err
	}

	now := time.Now()
	w := &domain.Withdrawal{
		ID:          uuid.New(),
		UserID:      actor.ID,
		Amount:      amount,
		BankDetails: bank,
		Status:      domain.WithdrawalPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.ledger.Reserve(ctx, actor.ID, amount); err != nil {
			return err
		}
		return s.repo.Create(ctx, w)
	})
	if err != nil {
		zap.L().Warn("withdrawal request refused", zap.Stringer("user_id", actor.ID), zap.Error(err))
		return nil, err
	}

	metrics.Withdrawals.WithLabelValues(string(w.Status)).Inc()
	s.publisher.Publish(domain.WithdrawalEvent(w, actor))
	return w, nil
}

func (s *Service) MarkProcessing(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Withdrawal, error) {
	return s.transition(ctx, actor, id, domain.ActionMarkProcessing, "", nil)
}

// Complete pays out the reserved amount and records it in the ledger.
func (s *Service) Complete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Withdrawal, error) {
	return s.transition(ctx, actor, id, domain.ActionCompleteWithdrawal, "", func(ctx context.Context, w *domain.Withdrawal) error {
		_, err := s.ledger.RecordWithdrawal(ctx, w.UserID, w.Amount, domain.Reference{
			Type:        domain.RefWithdrawal,
			ID:          w.ID,
			Description: "withdrawal to " + maskCard(w.BankDetails.CardNumber),
		})
		return err
	})
}

// Reject returns the reserved amount to the available balance.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, notes string) (*domain.Withdrawal, error) {
	return s.transition(ctx, actor, id, domain.ActionRejectWithdrawal, notes, func(ctx context.Context, w *domain.Withdrawal) error {
		return s.ledger.ReleaseReservation(ctx, w.UserID, w.Amount)
	})
}

func (s *Service) ListOwn(ctx context.Context, actor domain.Actor) ([]domain.Withdrawal, error) {
	withdrawals, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

// ListByStatus is the operator work queue. An empty status lists pending requests.
func (s *Service) ListByStatus(ctx context.Context, actor domain.Actor, status domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	if !actor.IsOperator() {
		return nil, domain.ErrUnauthorized
	}
	switch status {
	case "":
		status = domain.WithdrawalPending
	case domain.WithdrawalPending, domain.WithdrawalProcessing, domain.WithdrawalCompleted, domain.WithdrawalRejected:
	default:
		return nil, domain.ErrInvalidRequest
	}
	withdrawals, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		zap.L().Error("failed to fetch withdrawal queue", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, id uuid.UUID, action domain.WithdrawalAction,
	notes string, effect func(ctx context.Context, w *domain.Withdrawal) error) (*domain.Withdrawal, error) {
	var result *domain.Withdrawal
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		w, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return domain.ErrNotFound
		}
		next, err := w.Resolve(action, actor)
		if err != nil {
			return err
		}

		now := time.Now()
		operator := actor.ID
		w.Status = next
		w.ProcessedBy = &operator
		w.UpdatedAt = now
		if notes != "" {
			w.Notes = notes
		}
		if !next.Open() {
			w.ProcessedAt = &now
		}

		if effect != nil {
			if err := effect(ctx, w); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, w); err != nil {
			return err
		}
		result = w
		return nil
	})
	if err != nil {
		zap.L().Warn("withdrawal transition refused",
			zap.Stringer("withdrawal_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.Withdrawals.WithLabelValues(string(result.Status)).Inc()
	s.publisher.Publish(domain.WithdrawalEvent(result, actor))
	return result, nil
}

func validateBankDetails(bank domain.BankDetails) error {
	if strings.TrimSpace(bank.AccountHolder) == "" || strings.TrimSpace(bank.BankName) == "" {
		return domain.ErrInvalidBankDetails
	}
	if !validate.IsCardNumber(bank.CardNumber) {
		return domain.ErrInvalidBankDetails
	}
	return nil
}

func maskCard(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "*" + number[len(number)-4:]
}
