package escrow

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/dto"
	"github.com/GlebRadaev/escrowpay/internal/handlers/apierr"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
	"github.com/GlebRadaev/escrowpay/pkg/utils"
)

type Service interface {
	GetEscrow(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Escrow, error)
	History(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) ([]domain.EscrowTransition, error)
	ConfirmPayment(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error)
	MarkWorkCompleted(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error)
	ReleaseFunds(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error)
	Dispute(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error)
	Refund(ctx context.Context, actor domain.Actor, escrowID uuid.UUID) (*domain.Escrow, error)
}

type EscrowHandler struct {
	escrowService Service
}

func New(escrowService Service) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
	}
}

// GetEscrow godoc
//
//	@Summary	Get an escrow
//	@Tags		Escrow
//	@Security	BearerAuth
//	@Produce	json
//	@Param		escrowID	path		string	true	"Escrow ID"
//	@Success	200			{object}	dto.EscrowResponseDTO
//	@Failure	400			{object}	utils.Response	"Malformed escrow id"
//	@Failure	401			{object}	utils.Response	"User not authorized"
//	@Failure	404			{object}	utils.Response	"Escrow not found"
//	@Failure	500			{object}	utils.Response	"Internal server error"
//	@Router		/api/escrows/{escrowID} [get]
func (h *EscrowHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.escrowService.GetEscrow)
}

// History godoc
//
//	@Summary		Escrow audit trail
//	@Description	List every applied transition of the escrow, oldest first.
//	@Tags			Escrow
//	@Security		BearerAuth
//	@Produce		json
//	@Param			escrowID	path	string	true	"Escrow ID"
//	@Success		200			{array}		dto.TransitionResponseDTO
//	@Failure		400			{object}	utils.Response	"Malformed escrow id"
//	@Failure		401			{object}	utils.Response	"User not authorized"
//	@Failure		404			{object}	utils.Response	"Escrow not found"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/escrows/{escrowID}/history [get]
func (h *EscrowHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := request(w, r)
	if !ok {
		return
	}

	history, err := h.escrowService.History(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	response := make([]dto.TransitionResponseDTO, len(history))
	for i, t := range history {
		response[i] = dto.NewTransitionResponse(t)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ConfirmPayment godoc
//
//	@Summary		Confirm escrow payment
//	@Description	Client confirms the payment; the amount is credited to the freelancer's pending balance.
//	@Tags			Escrow
//	@Security		BearerAuth
//	@Produce		json
//	@Param			escrowID	path		string	true	"Escrow ID"
//	@Success		200			{object}	dto.EscrowResponseDTO
//	@Failure		401			{object}	utils.Response	"User not authorized"
//	@Failure		403			{object}	utils.Response	"Action not allowed for this role"
//	@Failure		404			{object}	utils.Response	"Escrow not found"
//	@Failure		409			{object}	utils.Response	"Invalid transition"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/escrows/{escrowID}/confirm-payment [post]
func (h *EscrowHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.escrowService.ConfirmPayment)
}

// CompleteWork godoc
//
//	@Summary	Mark work completed
//	@Tags		Escrow
//	@Security	BearerAuth
//	@Produce	json
//	@Param		escrowID	path		string	true	"Escrow ID"
//	@Success	200			{object}	dto.EscrowResponseDTO
//	@Failure	401			{object}	utils.Response	"User not authorized"
//	@Failure	403			{object}	utils.Response	"Action not allowed for this role"
//	@Failure	404			{object}	utils.Response	"Escrow not found"
//	@Failure	409			{object}	utils.Response	"Invalid transition"
//	@Failure	500			{object}	utils.Response	"Internal server error"
//	@Router		/api/escrows/{escrowID}/complete-work [post]
func (h *EscrowHandler) CompleteWork(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.escrowService.MarkWorkCompleted)
}

// Release godoc
//
//	@Summary		Release escrow funds
//	@Description	Client releases completed work, or an operator resolves a dispute for the freelancer.
//	@Tags			Escrow
//	@Security		BearerAuth
//	@Produce		json
//	@Param			escrowID	path		string	true	"Escrow ID"
//	@Success		200			{object}	dto.EscrowResponseDTO
//	@Failure		401			{object}	utils.Response	"User not authorized"
//	@Failure		403			{object}	utils.Response	"Action not allowed for this role"
//	@Failure		404			{object}	utils.Response	"Escrow not found"
//	@Failure		409			{object}	utils.Response	"Invalid transition"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/escrows/{escrowID}/release [post]
func (h *EscrowHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.escrowService.ReleaseFunds)
}

// Dispute godoc
//
//	@Summary	Open a dispute
//	@Tags		Escrow
//	@Security	BearerAuth
//	@Produce	json
//	@Param		escrowID	path		string	true	"Escrow ID"
//	@Success	200			{object}	dto.EscrowResponseDTO
//	@Failure	401			{object}	utils.Response	"User not authorized"
//	@Failure	403			{object}	utils.Response	"Action not allowed for this role"
//	@Failure	404			{object}	utils.Response	"Escrow not found"
//	@Failure	409			{object}	utils.Response	"Invalid transition"
//	@Failure	500			{object}	utils.Response	"Internal server error"
//	@Router		/api/escrows/{escrowID}/dispute [post]
func (h *EscrowHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.escrowService.Dispute)
}

// Refund godoc
//
//	@Summary		Refund a disputed escrow
//	@Description	Operator resolves a dispute for the client; the freelancer's pending credit is reversed.
//	@Tags			Escrow
//	@Security		BearerAuth
//	@Produce		json
//	@Param			escrowID	path		string	true	"Escrow ID"
//	@Success		200			{object}	dto.EscrowResponseDTO
//	@Failure		401			{object}	utils.Response	"User not authorized"
//	@Failure		403			{object}	utils.Response	"Action not allowed for this role"
//	@Failure		404			{object}	utils.Response	"Escrow not found"
//	@Failure		409			{object}	utils.Response	"Invalid transition"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/escrows/{escrowID}/refund [post]
func (h *EscrowHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.escrowService.Refund)
}

func (h *EscrowHandler) respond(w http.ResponseWriter, r *http.Request,
	call func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Escrow, error)) {
	actor, id, ok := request(w, r)
	if !ok {
		return
	}

	escrow, err := call(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewEscrowResponse(escrow))
}

func request(w http.ResponseWriter, r *http.Request) (domain.Actor, uuid.UUID, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return actor, uuid.Nil, false
	}
	id, err := utils.PathUUID(r, "escrowID")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return actor, uuid.Nil, false
	}
	return actor, id, true
}
