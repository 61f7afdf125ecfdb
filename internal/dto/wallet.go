package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

type WalletResponseDTO struct {
	ID               uuid.UUID       `json:"id"`
	AvailableBalance decimal.Decimal `json:"available_balance" swaggertype:"string" example:"450.00"`
	PendingBalance   decimal.Decimal `json:"pending_balance" swaggertype:"string" example:"500.00"`
	TotalEarned      decimal.Decimal `json:"total_earned" swaggertype:"string" example:"1200.00"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type WalletTransactionResponseDTO struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type" example:"release"`
	BalanceType   string          `json:"balance_type" example:"available"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
	Description   string          `json:"description" example:"escrow funds released"`
	ReferenceType string          `json:"reference_type" example:"escrow_release"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	BalanceAfter  decimal.Decimal `json:"balance_after" swaggertype:"string" example:"500.00"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewWalletResponse(w *domain.Wallet) WalletResponseDTO {
	return WalletResponseDTO{
		ID:               w.ID,
		AvailableBalance: w.AvailableBalance,
		PendingBalance:   w.PendingBalance,
		TotalEarned:      w.TotalEarned,
		UpdatedAt:        w.UpdatedAt,
	}
}

func NewWalletTransactionResponse(t domain.WalletTransaction) WalletTransactionResponseDTO {
	return WalletTransactionResponseDTO{
		ID:            t.ID,
		Type:          string(t.Type),
		BalanceType:   string(t.BalanceType),
		Amount:        t.Amount,
		Description:   t.Description,
		ReferenceType: string(t.ReferenceType),
		ReferenceID:   t.ReferenceID,
		BalanceAfter:  t.BalanceAfter,
		CreatedAt:     t.CreatedAt,
	}
}
