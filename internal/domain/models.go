package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractCancelled ContractStatus = "cancelled"
)

type Contract struct {
	ID           uuid.UUID       `db:"id"`
	ProjectID    uuid.UUID       `db:"project_id"`
	ClientID     uuid.UUID       `db:"client_id"`
	FreelancerID uuid.UUID       `db:"freelancer_id"`
	Amount       decimal.Decimal `db:"amount"`
	Status       ContractStatus  `db:"status"`
	StartDate    *time.Time      `db:"start_date"`
	EndDate      *time.Time      `db:"end_date"`
	CreatedAt    time.Time       `db:"created_at"`
}

type Escrow struct {
	ID           uuid.UUID       `db:"id"`
	ContractID   uuid.UUID       `db:"contract_id"`
	ProjectID    uuid.UUID       `db:"project_id"`
	ClientID     uuid.UUID       `db:"client_id"`
	FreelancerID uuid.UUID       `db:"freelancer_id"`
	Amount       decimal.Decimal `db:"amount"`
	Status       EscrowStatus    `db:"status"`
	LastActorID  *uuid.UUID      `db:"last_actor_id"`
	LastAction   string          `db:"last_action"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// EscrowTransition is one applied edge of the escrow status graph.
type EscrowTransition struct {
	ID        int64        `db:"id"`
	EscrowID  uuid.UUID    `db:"escrow_id"`
	From      EscrowStatus `db:"from_status"`
	To        EscrowStatus `db:"to_status"`
	Action    EscrowAction `db:"action"`
	ActorID   uuid.UUID    `db:"actor_id"`
	ActorRole Role         `db:"actor_role"`
	CreatedAt time.Time    `db:"created_at"`
}

type Wallet struct {
	ID               uuid.UUID       `db:"id"`
	UserID           uuid.UUID       `db:"user_id"`
	AvailableBalance decimal.Decimal `db:"available_balance"`
	PendingBalance   decimal.Decimal `db:"pending_balance"`
	TotalEarned      decimal.Decimal `db:"total_earned"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type EntryType string

const (
	EntryCredit     EntryType = "credit"
	EntryRelease    EntryType = "release"
	EntryRefund     EntryType = "refund"
	EntryWithdrawal EntryType = "withdrawal"
	EntryFee        EntryType = "fee"
)

// BalanceType names the wallet bucket a ledger entry's BalanceAfter refers to.
type BalanceType string

const (
	BalancePending   BalanceType = "pending"
	BalanceAvailable BalanceType = "available"
)

type ReferenceType string

const (
	RefEscrowPayment ReferenceType = "escrow_payment"
	RefEscrowRelease ReferenceType = "escrow_release"
	RefEscrowRefund  ReferenceType = "escrow_refund"
	RefEscrowFee     ReferenceType = "escrow_fee"
	RefWithdrawal    ReferenceType = "withdrawal"
	RefAdjustment    ReferenceType = "adjustment"
)

// Reference identifies the domain event that produced a ledger entry.
type Reference struct {
	Type        ReferenceType
	ID          uuid.UUID
	Description string
}

// WalletTransaction is an immutable ledger entry.
type WalletTransaction struct {
	ID            uuid.UUID       `db:"id"`
	WalletID      uuid.UUID       `db:"wallet_id"`
	Type          EntryType       `db:"type"`
	BalanceType   BalanceType     `db:"balance_type"`
	Amount        decimal.Decimal `db:"amount"`
	Description   string          `db:"description"`
	ReferenceType ReferenceType   `db:"reference_type"`
	ReferenceID   uuid.UUID       `db:"reference_id"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	CreatedAt     time.Time       `db:"created_at"`
}

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

// Open reports whether the request still holds a reservation.
func (s WithdrawalStatus) Open() bool {
	return s == WithdrawalPending || s == WithdrawalProcessing
}

type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	BankName      string `json:"bank_name"`
	CardNumber    string `json:"card_number"`
}

type Withdrawal struct {
	ID          uuid.UUID        `db:"id"`
	UserID      uuid.UUID        `db:"user_id"`
	Amount      decimal.Decimal  `db:"amount"`
	BankDetails BankDetails      `db:"bank_details"`
	Status      WithdrawalStatus `db:"status"`
	Notes       string           `db:"notes"`
	ProcessedBy *uuid.UUID       `db:"processed_by"`
	ProcessedAt *time.Time       `db:"processed_at"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
}
