package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

type EscrowResponseDTO struct {
	ID           uuid.UUID       `json:"id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	FreelancerID uuid.UUID       `json:"freelancer_id"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	Status       string          `json:"status" example:"payment_received"`
	LastActorID  *uuid.UUID      `json:"last_actor_id,omitempty"`
	LastAction   string          `json:"last_action,omitempty" example:"confirm_payment"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type TransitionResponseDTO struct {
	From      string    `json:"from,omitempty" example:"payment_received"`
	To        string    `json:"to" example:"work_completed"`
	Action    string    `json:"action" example:"mark_work_completed"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorRole string    `json:"actor_role" example:"freelancer"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEscrowResponse(e *domain.Escrow) EscrowResponseDTO {
	return EscrowResponseDTO{
		ID:           e.ID,
		ContractID:   e.ContractID,
		ProjectID:    e.ProjectID,
		ClientID:     e.ClientID,
		FreelancerID: e.FreelancerID,
		Amount:       e.Amount,
		Status:       string(e.Status),
		LastActorID:  e.LastActorID,
		LastAction:   e.LastAction,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func NewTransitionResponse(t domain.EscrowTransition) TransitionResponseDTO {
	return TransitionResponseDTO{
		From:      string(t.From),
		To:        string(t.To),
		Action:    string(t.Action),
		ActorID:   t.ActorID,
		ActorRole: string(t.ActorRole),
		CreatedAt: t.CreatedAt,
	}
}
