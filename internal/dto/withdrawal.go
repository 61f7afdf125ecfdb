package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

type WithdrawalRequestDTO struct {
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	AccountHolder string          `json:"account_holder" example:"Jane Doe"`
	BankName      string          `json:"bank_name" example:"First Bank"`
	CardNumber    string          `json:"card_number" example:"4242 4242 4242 4242"`
}

type RejectWithdrawalRequestDTO struct {
	Notes string `json:"notes" example:"account holder does not match"`
}

type WithdrawalResponseDTO struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	BankName    string          `json:"bank_name" example:"First Bank"`
	CardLast4   string          `json:"card_last4" example:"4242"`
	Status      string          `json:"status" example:"pending"`
	Notes       string          `json:"notes,omitempty"`
	ProcessedBy *uuid.UUID      `json:"processed_by,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponseDTO {
	last4 := w.BankDetails.CardNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	return WithdrawalResponseDTO{
		ID:          w.ID,
		UserID:      w.UserID,
		Amount:      w.Amount,
		BankName:    w.BankDetails.BankName,
		CardLast4:   last4,
		Status:      string(w.Status),
		Notes:       w.Notes,
		ProcessedBy: w.ProcessedBy,
		ProcessedAt: w.ProcessedAt,
		CreatedAt:   w.CreatedAt,
	}
}

func (r WithdrawalRequestDTO) BankDetails() domain.BankDetails {
	return domain.BankDetails{
		AccountHolder: r.AccountHolder,
		BankName:      r.BankName,
		CardNumber:    r.CardNumber,
	}
}
