package domain

type WithdrawalAction string

const (
	ActionMarkProcessing     WithdrawalAction = "mark_processing"
	ActionCompleteWithdrawal WithdrawalAction = "complete"
	ActionRejectWithdrawal   WithdrawalAction = "reject"
)

type withdrawalKey struct {
	from   WithdrawalStatus
	action WithdrawalAction
}

// Every withdrawal edge is operator-only.
var withdrawalTransitions = map[withdrawalKey]WithdrawalStatus{
	{WithdrawalPending, ActionMarkProcessing}:        WithdrawalProcessing,
	{WithdrawalPending, ActionCompleteWithdrawal}:    WithdrawalCompleted,
	{WithdrawalProcessing, ActionCompleteWithdrawal}: WithdrawalCompleted,
	{WithdrawalPending, ActionRejectWithdrawal}:      WithdrawalRejected,
	{WithdrawalProcessing, ActionRejectWithdrawal}:   WithdrawalRejected,
}

func (w *Withdrawal) Resolve(action WithdrawalAction, actor Actor) (WithdrawalStatus, error) {
	next, ok := withdrawalTransitions[withdrawalKey{w.Status, action}]
	if !ok {
		return "", &TransitionError{
			Action:         string(action),
			Current:        string(w.Status),
			LastActorID:    w.ProcessedBy,
			LastChangedAt:  w.UpdatedAt,
			AlreadyApplied: !w.Status.Open(),
		}
	}
	if !actor.IsOperator() {
		return "", ErrUnauthorized
	}
	return next, nil
}
