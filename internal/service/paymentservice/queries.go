package paymentservice

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

// Reads are visible to the two parties and to operators. Anyone else gets
// ErrNotFound so that the existence of a contract is not disclosed.

func (s *Service) GetContract(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get contract", zap.Error(err))
		return nil, err
	}
	if contract == nil || !canSee(actor, contract.ClientID, contract.FreelancerID) {
		return nil, domain.ErrNotFound
	}
	return contract, nil
}

func (s *Service) GetEscrowByContract(ctx context.Context, actor domain.Actor, contractID uuid.UUID) (*domain.Escrow, error) {
	escrow, err := s.escrows.GetByContractID(ctx, contractID)
	if err != nil {
		zap.L().Error("failed to get escrow by contract", zap.Error(err))
		return nil, err
	}
	return visible(actor, escrow)
}

func (s *Service) GetEscrow(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Escrow, error) {
	escrow, err := s.escrows.GetByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get escrow", zap.Error(err))
		return nil, err
	}
	return visible(actor, escrow)
}

// History lists the applied transitions of an escrow, oldest first.
func (s *Service) History(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) ([]domain.EscrowTransition, error) {
	if _, err := s.GetEscrow(ctx, actor, escrowID); err != nil {
		return nil, err
	}
	history, err := s.escrows.ListTransitions(ctx, escrowID)
	if err != nil {
		zap.L().Error("failed to list escrow transitions", zap.Error(err))
		return nil, err
	}
	return history, nil
}

func visible(actor domain.Actor, escrow *domain.Escrow) (*domain.Escrow, error) {
	if escrow == nil {
		return nil, domain.ErrNotFound
	}
	if _, ok := escrow.RoleOf(actor); !ok {
		return nil, domain.ErrNotFound
	}
	return escrow, nil
}

func canSee(actor domain.Actor, clientID, freelancerID uuid.UUID) bool {
	return actor.ID == clientID || actor.ID == freelancerID || actor.IsOperator()
}
