package paymentservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

type ContractRepo interface {
	Create(ctx context.Context, contract *domain.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContractStatus) error
}

type EscrowRepo interface {
	Create(ctx context.Context, escrow *domain.Escrow) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Escrow, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID) (*domain.Escrow, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Escrow, error)
	UpdateStatus(ctx context.Context, escrow *domain.Escrow) error
	AddTransition(ctx context.Context, t *domain.EscrowTransition) error
	ListTransitions(ctx context.Context, escrowID uuid.UUID) ([]domain.EscrowTransition, error)
}

type Ledger interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference, toPending bool) (*domain.WalletTransaction, error)
	MoveFromPendingToAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error)
	ReversePending(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error)
	DebitAvailable(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ref domain.Reference, typ domain.EntryType) (*domain.WalletTransaction, error)
}

type Publisher interface {
	Publish(events ...domain.Event)
}

type Options struct {
	CompletionPolicy domain.WorkCompletionPolicy
	// FeePercent of every release is charged to the freelancer as a fee entry.
	FeePercent decimal.Decimal
}

// ProposalAccepted carries the terms of an accepted proposal. The accepting
// actor is the client.
type ProposalAccepted struct {
	ProjectID    uuid.UUID
	FreelancerID uuid.UUID
	Amount       decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
}

type Service struct {
	txManager  pg.TXManager
	contracts  ContractRepo
	escrows    EscrowRepo
	ledger     Ledger
	publisher  Publisher
	table      domain.TransitionTable
	feePercent decimal.Decimal
}

func New(txManager pg.TXManager, contracts ContractRepo, escrows EscrowRepo, ledger Ledger, publisher Publisher, opts Options) *Service {
	policy := opts.CompletionPolicy
	if policy == "" {
		policy = domain.CompletionByFreelancer
	}
	return &Service{
		txManager:  txManager,
		contracts:  contracts,
		escrows:    escrows,
		ledger:     ledger,
		publisher:  publisher,
		table:      domain.NewTransitionTable(policy),
		feePercent: opts.FeePercent,
	}
}

// AcceptProposal creates the contract and its escrow in pending_payment in
// one transaction.
func (s *Service) AcceptProposal(ctx context.Context, actor domain.Actor, p ProposalAccepted) (*domain.Contract, *domain.Escrow, error) {
	if actor.Role != domain.RoleClient {
		return nil, nil, domain.ErrUnauthorized
	}
	if err := domain.ValidateAmount(p.Amount); err != nil {
		return nil, nil, err
	}
	if p.ProjectID == uuid.Nil || p.FreelancerID == uuid.Nil || p.FreelancerID == actor.ID {
		return nil, nil, domain.ErrInvalidRequest
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, nil, domain.ErrInvalidRequest
	}

	now := time.Now()
	contract := &domain.Contract{
		ID:           uuid.New(),
		ProjectID:    p.ProjectID,
		ClientID:     actor.ID,
		FreelancerID: p.FreelancerID,
		Amount:       p.Amount,
		Status:       domain.ContractActive,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		CreatedAt:    now,
	}
	creator := actor.ID
	escrow := &domain.Escrow{
		ID:           uuid.New(),
		ContractID:   contract.ID,
		ProjectID:    contract.ProjectID,
		ClientID:     contract.ClientID,
		FreelancerID: contract.FreelancerID,
		Amount:       contract.Amount,
		Status:       domain.EscrowPendingPayment,
		LastActorID:  &creator,
		LastAction:   string(domain.ActionCreate),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.contracts.Create(ctx, contract); err != nil {
			return err
		}
		if err := s.escrows.Create(ctx, escrow); err != nil {
			return err
		}
		return s.escrows.AddTransition(ctx, &domain.EscrowTransition{
			EscrowID:  escrow.ID,
			To:        domain.EscrowPendingPayment,
			Action:    domain.ActionCreate,
			ActorID:   actor.ID,
			ActorRole: domain.RoleClient,
			CreatedAt: now,
		})
	})
	if err != nil {
		zap.L().Warn("failed to accept proposal", zap.Stringer("project_id", p.ProjectID), zap.Error(err))
		return nil, nil, err
	}

	zap.L().Info("contract created",
		zap.Stringer("contract_id", contract.ID),
		zap.Stringer("escrow_id", escrow.ID),
		zap.Stringer("amount", contract.Amount),
	)
	s.publisher.Publish(domain.ContractEvent(contract, actor))
	return contract, escrow, nil
}

// ConfirmPayment records the client's payment and credits the freelancer's
// pending balance.
func (s *Service) ConfirmPayment(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error) {
	return s.transition(ctx, actor, escrowID, domain.ActionConfirmPayment, func(ctx context.Context, e *domain.Escrow) error {
		_, err := s.ledger.Credit(ctx, e.FreelancerID, e.Amount, domain.Reference{
			Type:        domain.RefEscrowPayment,
			ID:          e.ID,
			Description: "escrow payment received",
		}, true)
		return err
	})
}

func (s *Service) MarkWorkCompleted(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error) {
	return s.transition(ctx, actor, escrowID, domain.ActionMarkWorkCompleted, nil)
}

// ReleaseFunds settles the escrow into the freelancer's available balance and
// completes the contract.
func (s *Service) ReleaseFunds(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error) {
	return s.transition(ctx, actor, escrowID, domain.ActionReleaseFunds, func(ctx context.Context, e *domain.Escrow) error {
		_, err := s.ledger.MoveFromPendingToAvailable(ctx, e.FreelancerID, e.Amount, domain.Reference{
			Type:        domain.RefEscrowRelease,
			ID:          e.ID,
			Description: "escrow funds released",
		})
		if err != nil {
			return err
		}
		if fee := s.fee(e.Amount); fee.IsPositive() {
			_, err := s.ledger.DebitAvailable(ctx, e.FreelancerID, fee, domain.Reference{
				Type:        domain.RefEscrowFee,
				ID:          e.ID,
				Description: "platform fee",
			}, domain.EntryFee)
			if err != nil {
				return err
			}
		}
		return s.contracts.UpdateStatus(ctx, e.ContractID, domain.ContractCompleted)
	})
}

func (s *Service) Dispute(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error) {
	return s.transition(ctx, actor, escrowID, domain.ActionDispute, nil)
}

// Refund returns a disputed escrow to the client: the freelancer's pending
// credit is reversed and the contract is cancelled.
func (s *Service) Refund(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error) {
	return s.transition(ctx, actor, escrowID, domain.ActionRefund, func(ctx context.Context, e *domain.Escrow) error {
		_, err := s.ledger.ReversePending(ctx, e.FreelancerID, e.Amount, domain.Reference{
			Type:        domain.RefEscrowRefund,
			ID:          e.ID,
			Description: "escrow refunded",
		})
		if err != nil {
			return err
		}
		return s.contracts.UpdateStatus(ctx, e.ContractID, domain.ContractCancelled)
	})
}

func (s *Service) fee(amount decimal.Decimal) decimal.Decimal {
	if !s.feePercent.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(s.feePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// transition applies one edge of the escrow graph. The escrow row stays locked
// for the whole transaction so concurrent requests on the same escrow are
// serialized and the loser observes the new status.
func (s *Service) transition(ctx context.Context, actor domain.Actor, escrowID uuid.UUID, action domain.EscrowAction,
	effect func(ctx context.Context, e *domain.Escrow) error) (*domain.Escrow, error) {
	var result *domain.Escrow
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		e, err := s.escrows.GetForUpdate(ctx, escrowID)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		role, ok := e.RoleOf(actor)
		if !ok {
			return domain.ErrUnauthorized
		}
		next, err := s.table.Resolve(e, action, role)
		if err != nil {
			return err
		}

		from := e.Status
		now := time.Now()
		actorID := actor.ID
		e.Status = next
		e.LastActorID = &actorID
		e.LastAction = string(action)
		e.UpdatedAt = now

		if err := s.escrows.UpdateStatus(ctx, e); err != nil {
			return err
		}
		if effect != nil {
			if err := effect(ctx, e); err != nil {
				return err
			}
		}
		if err := s.escrows.AddTransition(ctx, &domain.EscrowTransition{
			EscrowID:  e.ID,
			From:      from,
			To:        next,
			Action:    action,
			ActorID:   actor.ID,
			ActorRole: role,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = e
		return nil
	})
	if err != nil {
		zap.L().Warn("escrow transition refused",
			zap.Stringer("escrow_id", escrowID),
			zap.String("action", string(action)),
			zap.Stringer("actor_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	zap.L().Info("escrow transition applied",
		zap.Stringer("escrow_id", escrowID),
		zap.String("action", string(action)),
		zap.String("status", string(result.Status)),
	)
	metrics.EscrowTransitions.WithLabelValues(string(action), string(result.Status)).Inc()
	s.publisher.Publish(domain.EscrowEvent(result, actor))
	return result, nil
}
