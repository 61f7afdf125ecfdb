package domain

import (
	"fmt"
	"slices"
)

type EscrowStatus string

const (
	EscrowPendingPayment  EscrowStatus = "pending_payment"
	EscrowPaymentReceived EscrowStatus = "payment_received"
	EscrowWorkCompleted   EscrowStatus = "work_completed"
	EscrowFundsReleased   EscrowStatus = "funds_released"
	EscrowDisputed        EscrowStatus = "disputed"
	EscrowRefunded        EscrowStatus = "refunded"
)

func (s EscrowStatus) Terminal() bool {
	return s == EscrowFundsReleased || s == EscrowRefunded
}

type EscrowAction string

const (
	ActionConfirmPayment    EscrowAction = "confirm_payment"
	ActionMarkWorkCompleted EscrowAction = "mark_work_completed"
	ActionReleaseFunds      EscrowAction = "release_funds"
	ActionDispute           EscrowAction = "dispute"
	ActionRefund            EscrowAction = "refund"

	// ActionCreate labels the audit row written when an escrow is opened.
	// It is not an edge of the transition table.
	ActionCreate EscrowAction = "create"
)

// WorkCompletionPolicy decides who may move an escrow to work_completed.
type WorkCompletionPolicy string

const (
	CompletionByFreelancer WorkCompletionPolicy = "freelancer"
	CompletionByEither     WorkCompletionPolicy = "either"
)

func ParseWorkCompletionPolicy(s string) (WorkCompletionPolicy, error) {
	switch p := WorkCompletionPolicy(s); p {
	case CompletionByFreelancer, CompletionByEither:
		return p, nil
	}
	return "", fmt.Errorf("unsupported work completion policy: %q", s)
}

type transitionKey struct {
	from   EscrowStatus
	action EscrowAction
}

type transitionRule struct {
	to    EscrowStatus
	roles []Role
}

// TransitionTable is the complete escrow status graph with the roles allowed
// to take every edge. Anything not listed is illegal.
type TransitionTable struct {
	rules map[transitionKey]transitionRule
	// actors lists, per action, every role that takes it on some edge.
	actors map[EscrowAction][]Role
}

func NewTransitionTable(policy WorkCompletionPolicy) TransitionTable {
	completers := []Role{RoleFreelancer}
	if policy == CompletionByEither {
		completers = append(completers, RoleClient)
	}

	rules := map[transitionKey]transitionRule{
		{EscrowPendingPayment, ActionConfirmPayment}:     {EscrowPaymentReceived, []Role{RoleClient}},
		{EscrowPaymentReceived, ActionMarkWorkCompleted}: {EscrowWorkCompleted, completers},
		{EscrowPaymentReceived, ActionDispute}:           {EscrowDisputed, []Role{RoleClient, RoleFreelancer}},
		{EscrowWorkCompleted, ActionReleaseFunds}:        {EscrowFundsReleased, []Role{RoleClient}},
		{EscrowWorkCompleted, ActionDispute}:             {EscrowDisputed, []Role{RoleClient, RoleFreelancer}},
		{EscrowDisputed, ActionReleaseFunds}:             {EscrowFundsReleased, []Role{RoleOperator}},
		{EscrowDisputed, ActionRefund}:                   {EscrowRefunded, []Role{RoleOperator}},
	}

	actors := make(map[EscrowAction][]Role)
	for key, rule := range rules {
		for _, role := range rule.roles {
			if !slices.Contains(actors[key.action], role) {
				actors[key.action] = append(actors[key.action], role)
			}
		}
	}
	return TransitionTable{rules: rules, actors: actors}
}

// Resolve returns the status the escrow moves to when role performs action.
// On a live escrow a role that never takes action gets ErrUnauthorized before
// the edge is looked up. Otherwise an edge missing from the table yields a
// *TransitionError and an edge the role may not take yields ErrUnauthorized.
// Terminal escrows answer every call with a *TransitionError.
func (t TransitionTable) Resolve(e *Escrow, action EscrowAction, role Role) (EscrowStatus, error) {
	if !e.Status.Terminal() && !slices.Contains(t.actors[action], role) {
		return "", ErrUnauthorized
	}
	rule, ok := t.rules[transitionKey{e.Status, action}]
	if !ok {
		return "", &TransitionError{
			Action:         string(action),
			Current:        string(e.Status),
			LastActorID:    e.LastActorID,
			LastChangedAt:  e.UpdatedAt,
			AlreadyApplied: t.appliedBefore(e.Status, action),
		}
	}
	if !slices.Contains(rule.roles, role) {
		return "", ErrUnauthorized
	}
	return rule.to, nil
}

// appliedBefore reports whether status can only be reached by a path that
// went through an edge labelled action.
func (t TransitionTable) appliedBefore(status EscrowStatus, action EscrowAction) bool {
	for key, rule := range t.rules {
		if key.action != action {
			continue
		}
		if rule.to == status || t.reachable(rule.to, status) {
			return !t.reachableAvoiding(EscrowPendingPayment, status, action)
		}
	}
	return false
}

func (t TransitionTable) reachable(from, to EscrowStatus) bool {
	return t.search(from, to, "")
}

func (t TransitionTable) reachableAvoiding(from, to EscrowStatus, skip EscrowAction) bool {
	return t.search(from, to, skip)
}

func (t TransitionTable) search(from, to EscrowStatus, skip EscrowAction) bool {
	seen := map[EscrowStatus]bool{from: true}
	queue := []EscrowStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for key, rule := range t.rules {
			if key.from != cur || key.action == skip || seen[rule.to] {
				continue
			}
			if rule.to == to {
				return true
			}
			seen[rule.to] = true
			queue = append(queue, rule.to)
		}
	}
	return false
}

// RoleOf returns the part the actor plays in the escrow.
func (e *Escrow) RoleOf(a Actor) (Role, bool) {
	switch {
	case a.ID == e.ClientID:
		return RoleClient, true
	case a.ID == e.FreelancerID:
		return RoleFreelancer, true
	case a.IsOperator():
		return RoleOperator, true
	}
	return "", false
}
