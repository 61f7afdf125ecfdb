package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allStatuses = []EscrowStatus{
		EscrowPendingPayment, EscrowPaymentReceived, EscrowWorkCompleted,
		EscrowFundsReleased, EscrowDisputed, EscrowRefunded,
	}
	allActions = []EscrowAction{
		ActionConfirmPayment, ActionMarkWorkCompleted, ActionReleaseFunds, ActionDispute, ActionRefund,
	}
	allRoles = []Role{RoleClient, RoleFreelancer, RoleOperator}
)

func TestTransitionTable_Resolve(t *testing.T) {
	type edge struct {
		from   EscrowStatus
		action EscrowAction
	}
	legal := map[edge]struct {
		to    EscrowStatus
		roles []Role
	}{
		{EscrowPendingPayment, ActionConfirmPayment}:     {EscrowPaymentReceived, []Role{RoleClient}},
		{EscrowPaymentReceived, ActionMarkWorkCompleted}: {EscrowWorkCompleted, []Role{RoleFreelancer}},
		{EscrowPaymentReceived, ActionDispute}:           {EscrowDisputed, []Role{RoleClient, RoleFreelancer}},
		{EscrowWorkCompleted, ActionReleaseFunds}:        {EscrowFundsReleased, []Role{RoleClient}},
		{EscrowWorkCompleted, ActionDispute}:             {EscrowDisputed, []Role{RoleClient, RoleFreelancer}},
		{EscrowDisputed, ActionReleaseFunds}:             {EscrowFundsReleased, []Role{RoleOperator}},
		{EscrowDisputed, ActionRefund}:                   {EscrowRefunded, []Role{RoleOperator}},
	}

	takes := func(action EscrowAction, role Role) bool {
		for e, rule := range legal {
			if e.action == action && contains(rule.roles, role) {
				return true
			}
		}
		return false
	}

	table := NewTransitionTable(CompletionByFreelancer)
	for _, status := range allStatuses {
		for _, action := range allActions {
			for _, role := range allRoles {
				name := string(status) + "/" + string(action) + "/" + string(role)
				t.Run(name, func(t *testing.T) {
					next, err := table.Resolve(&Escrow{Status: status}, action, role)

					rule, ok := legal[edge{status, action}]
					switch {
					case !status.Terminal() && !takes(action, role):
						assert.ErrorIs(t, err, ErrUnauthorized)
						assert.Empty(t, next)
					case !ok:
						assert.ErrorIs(t, err, ErrInvalidTransition)
						assert.Empty(t, next)
					case !contains(rule.roles, role):
						assert.ErrorIs(t, err, ErrUnauthorized)
						assert.Empty(t, next)
					default:
						require.NoError(t, err)
						assert.Equal(t, rule.to, next)
					}
				})
			}
		}
	}
}

func TestTransitionTable_TerminalStatesRejectEverything(t *testing.T) {
	table := NewTransitionTable(CompletionByEither)
	for _, status := range []EscrowStatus{EscrowFundsReleased, EscrowRefunded} {
		assert.True(t, status.Terminal())
		for _, action := range allActions {
			for _, role := range allRoles {
				_, err := table.Resolve(&Escrow{Status: status}, action, role)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s %s %s", status, action, role)
			}
		}
	}
}

func TestTransitionTable_RoleCheckedBeforeEdge(t *testing.T) {
	table := NewTransitionTable(CompletionByFreelancer)
	tests := []struct {
		name      string
		status    EscrowStatus
		action    EscrowAction
		role      Role
		expectErr error
	}{
		{"freelancer refunds a paid escrow", EscrowPaymentReceived, ActionRefund, RoleFreelancer, ErrUnauthorized},
		{"freelancer releases an unpaid escrow", EscrowPendingPayment, ActionReleaseFunds, RoleFreelancer, ErrUnauthorized},
		{"operator confirms payment", EscrowPaymentReceived, ActionConfirmPayment, RoleOperator, ErrUnauthorized},
		{"client releases before work is done", EscrowPaymentReceived, ActionReleaseFunds, RoleClient, ErrInvalidTransition},
		{"freelancer refunds a released escrow", EscrowFundsReleased, ActionRefund, RoleFreelancer, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := table.Resolve(&Escrow{Status: tt.status}, tt.action, tt.role)
			assert.ErrorIs(t, err, tt.expectErr)
			assert.Empty(t, next)
		})
	}
}

func TestTransitionTable_CompletionPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    WorkCompletionPolicy
		role      Role
		expectErr error
	}{
		{name: "freelancer policy, freelancer", policy: CompletionByFreelancer, role: RoleFreelancer},
		{name: "freelancer policy, client", policy: CompletionByFreelancer, role: RoleClient, expectErr: ErrUnauthorized},
		{name: "either policy, client", policy: CompletionByEither, role: RoleClient},
		{name: "either policy, operator", policy: CompletionByEither, role: RoleOperator, expectErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTransitionTable(tt.policy)
			next, err := table.Resolve(&Escrow{Status: EscrowPaymentReceived}, ActionMarkWorkCompleted, tt.role)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, EscrowWorkCompleted, next)
		})
	}
}

func TestTransitionTable_AlreadyApplied(t *testing.T) {
	table := NewTransitionTable(CompletionByFreelancer)
	actorID := uuid.New()

	tests := []struct {
		name    string
		status  EscrowStatus
		action  EscrowAction
		role    Role
		applied bool
	}{
		{"confirm retried after payment", EscrowPaymentReceived, ActionConfirmPayment, RoleClient, true},
		{"confirm retried after release", EscrowFundsReleased, ActionConfirmPayment, RoleOperator, true},
		{"release retried", EscrowFundsReleased, ActionReleaseFunds, RoleClient, true},
		{"refund retried", EscrowRefunded, ActionRefund, RoleOperator, true},
		{"dispute retried", EscrowDisputed, ActionDispute, RoleFreelancer, true},
		{"release after refund", EscrowRefunded, ActionReleaseFunds, RoleOperator, false},
		{"refund after release", EscrowFundsReleased, ActionRefund, RoleOperator, false},
		{"complete work after release", EscrowFundsReleased, ActionMarkWorkCompleted, RoleFreelancer, false},
		{"release before payment", EscrowPendingPayment, ActionReleaseFunds, RoleOperator, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.Resolve(&Escrow{Status: tt.status, LastActorID: &actorID}, tt.action, tt.role)

			var terr *TransitionError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.applied, terr.AlreadyApplied)
			assert.Equal(t, string(tt.status), terr.Current)
			assert.Equal(t, &actorID, terr.LastActorID)
		})
	}
}

func TestEscrow_RoleOf(t *testing.T) {
	client, freelancer := uuid.New(), uuid.New()
	e := &Escrow{ClientID: client, FreelancerID: freelancer}

	tests := []struct {
		name   string
		actor  Actor
		role   Role
		member bool
	}{
		{"client", Actor{ID: client, Role: RoleClient}, RoleClient, true},
		{"freelancer", Actor{ID: freelancer, Role: RoleFreelancer}, RoleFreelancer, true},
		{"operator", Actor{ID: uuid.New(), Role: RoleOperator}, RoleOperator, true},
		{"stranger", Actor{ID: uuid.New(), Role: RoleClient}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, ok := e.RoleOf(tt.actor)
			assert.Equal(t, tt.member, ok)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestParseWorkCompletionPolicy(t *testing.T) {
	p, err := ParseWorkCompletionPolicy("either")
	require.NoError(t, err)
	assert.Equal(t, CompletionByEither, p)

	_, err = ParseWorkCompletionPolicy("anyone")
	assert.Error(t, err)
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"500", true},
		{"0.01", true},
		{"1.50", true},
		{"0", false},
		{"-10", false},
		{"0.001", false},
		{"1000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAmount)
			}
		})
	}
}

func contains(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
