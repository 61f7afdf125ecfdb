package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventContractCreated       = "contract.created"
	EventEscrowPaymentReceived = "escrow.payment_received"
	EventEscrowWorkCompleted   = "escrow.work_completed"
	EventEscrowFundsReleased   = "escrow.funds_released"
	EventEscrowDisputed        = "escrow.disputed"
	EventEscrowRefunded        = "escrow.refunded"
	EventWithdrawalRequested   = "withdrawal.requested"
	EventWithdrawalProcessing  = "withdrawal.processing"
	EventWithdrawalCompleted   = "withdrawal.completed"
	EventWithdrawalRejected    = "withdrawal.rejected"
)

var escrowEvents = map[EscrowStatus]string{
	EscrowPaymentReceived: EventEscrowPaymentReceived,
	EscrowWorkCompleted:   EventEscrowWorkCompleted,
	EscrowFundsReleased:   EventEscrowFundsReleased,
	EscrowDisputed:        EventEscrowDisputed,
	EscrowRefunded:        EventEscrowRefunded,
}

var withdrawalEvents = map[WithdrawalStatus]string{
	WithdrawalPending:    EventWithdrawalRequested,
	WithdrawalProcessing: EventWithdrawalProcessing,
	WithdrawalCompleted:  EventWithdrawalCompleted,
	WithdrawalRejected:   EventWithdrawalRejected,
}

// Event is a domain notification emitted after a committed state change.
type Event struct {
	Type       string          `json:"type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Recipients []uuid.UUID     `json:"recipients"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	ActorID    uuid.UUID       `json:"actor_id"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func EscrowEvent(e *Escrow, actor Actor) Event {
	return Event{
		Type:       escrowEvents[e.Status],
		EntityID:   e.ID,
		Recipients: []uuid.UUID{e.ClientID, e.FreelancerID},
		Amount:     e.Amount,
		Status:     string(e.Status),
		ActorID:    actor.ID,
		OccurredAt: e.UpdatedAt,
	}
}

func ContractEvent(c *Contract, actor Actor) Event {
	return Event{
		Type:       EventContractCreated,
		EntityID:   c.ID,
		Recipients: []uuid.UUID{c.ClientID, c.FreelancerID},
		Amount:     c.Amount,
		Status:     string(c.Status),
		ActorID:    actor.ID,
		OccurredAt: c.CreatedAt,
	}
}

func WithdrawalEvent(w *Withdrawal, actor Actor) Event {
	return Event{
		Type:       withdrawalEvents[w.Status],
		EntityID:   w.ID,
		Recipients: []uuid.UUID{w.UserID},
		Amount:     w.Amount,
		Status:     string(w.Status),
		ActorID:    actor.ID,
		OccurredAt: w.UpdatedAt,
	}
}
