package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition        = errors.New("invalid transition")
	ErrUnauthorized             = errors.New("not authorized")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInsufficientPendingFunds = errors.New("insufficient pending funds")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrNotFound                 = errors.New("not found")
	ErrContractExists           = errors.New("active contract already exists for project and freelancer")
	ErrInvalidBankDetails       = errors.New("invalid bank details")
	ErrInvalidRequest           = errors.New("invalid request")
	ErrLedgerMismatch           = errors.New("ledger does not reconcile with wallet balances")
	ErrDuplicateEntry           = errors.New("ledger entry already recorded")
)

// TransitionError describes a rejected state change. It unwraps to ErrInvalidTransition.
type TransitionError struct {
	Action         string
	Current        string
	LastActorID    *uuid.UUID
	LastChangedAt  time.Time
	AlreadyApplied bool
}

func (e *TransitionError) Error() string {
	if e.AlreadyApplied {
		return fmt.Sprintf("%s: already applied, current status %s", ErrInvalidTransition, e.Current)
	}
	return fmt.Sprintf("%s: %s is not allowed from status %s", ErrInvalidTransition, e.Action, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
