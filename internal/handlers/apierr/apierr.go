// Package apierr translates service errors into HTTP replies.
package apierr

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/pkg/utils"
)

// TransitionDetails is only shown to operators.
type TransitionDetails struct {
	CurrentStatus    string     `json:"current_status"`
	LastActorID      *uuid.UUID `json:"last_actor_id,omitempty"`
	LastTransitionAt *time.Time `json:"last_transition_at,omitempty"`
	AlreadyApplied   bool       `json:"already_applied"`
}

var statuses = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrContractExists, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
	{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{domain.ErrInvalidBankDetails, http.StatusUnprocessableEntity},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
}

// Status returns the HTTP status for err. Ledger inconsistencies and
// infrastructure failures are 500.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

func Write(w http.ResponseWriter, actor domain.Actor, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Stringer("actor_id", actor.ID), zap.Error(err))
		utils.RespondWithError(w, code, "Internal server error")
		return
	}

	var terr *domain.TransitionError
	if errors.As(err, &terr) && actor.IsOperator() {
		details := TransitionDetails{
			CurrentStatus:  terr.Current,
			LastActorID:    terr.LastActorID,
			AlreadyApplied: terr.AlreadyApplied,
		}
		if !terr.LastChangedAt.IsZero() {
			details.LastTransitionAt = &terr.LastChangedAt
		}
		utils.RespondWithErrorDetails(w, code, domain.ErrInvalidTransition.Error(), details)
		return
	}
	if terr != nil {
		utils.RespondWithError(w, code, domain.ErrInvalidTransition.Error())
		return
	}
	utils.RespondWithError(w, code, err.Error())
}
