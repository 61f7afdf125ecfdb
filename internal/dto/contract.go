package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

type AcceptProposalRequestDTO struct {
	ProjectID    uuid.UUID       `json:"project_id" example:"7a0c1f9e-4b0e-4f64-9a43-0c5c2b1e6f10"`
	FreelancerID uuid.UUID       `json:"freelancer_id" example:"0f6f6a1e-3f4a-4a55-8f3c-61d2b5f7d2a1"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	StartDate    *time.Time      `json:"start_date,omitempty" example:"2024-05-01T00:00:00Z"`
	EndDate      *time.Time      `json:"end_date,omitempty" example:"2024-06-01T00:00:00Z"`
}

type ContractResponseDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	FreelancerID uuid.UUID       `json:"freelancer_id"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	Status       string          `json:"status" example:"active"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AcceptProposalResponseDTO struct {
	Contract ContractResponseDTO `json:"contract"`
	Escrow   EscrowResponseDTO   `json:"escrow"`
}

func NewContractResponse(c *domain.Contract) ContractResponseDTO {
	return ContractResponseDTO{
		ID:           c.ID,
		ProjectID:    c.ProjectID,
		ClientID:     c.ClientID,
		FreelancerID: c.FreelancerID,
		Amount:       c.Amount,
		Status:       string(c.Status),
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		CreatedAt:    c.CreatedAt,
	}
}
