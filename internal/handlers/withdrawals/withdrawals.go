package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/dto"
	"github.com/GlebRadaev/escrowpay/internal/handlers/apierr"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
	"github.com/GlebRadaev/escrowpay/pkg/utils"
)

type Service interface {
	RequestWithdrawal(ctx context.Context, actor domain.Actor, amount decimal.Decimal, bank domain.BankDetails) (*domain.Withdrawal, error)
	ListOwn(ctx context.Context, actor domain.Actor) ([]domain.Withdrawal, error)
	ListByStatus(ctx context.Context, actor domain.Actor, status domain.WithdrawalStatus) ([]domain.Withdrawal, error)
	MarkProcessing(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Withdrawal, error)
	Complete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Withdrawal, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, notes string) (*domain.Withdrawal, error)
}

type WithdrawalHandler struct {
	withdrawalService Service
}

func New(withdrawalService Service) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

// Request godoc
//
//	@Summary		Request a withdrawal
//	@Description	Reserve part of the available balance for a payout to a bank card.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawalRequestDTO	true	"Withdrawal request"
//	@Success		201		{object}	dto.WithdrawalResponseDTO
//	@Failure		400		{object}	utils.Response	"Malformed request"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient funds"
//	@Failure		403		{object}	utils.Response	"Only freelancers withdraw"
//	@Failure		422		{object}	utils.Response	"Invalid amount or bank details"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/withdrawals [post]
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.WithdrawalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(r.Context(), actor, req.Amount, req.BankDetails())
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewWithdrawalResponse(withdrawal))
}

// ListOwn godoc
//
//	@Summary	List own withdrawals
//	@Tags		Withdrawals
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}		dto.WithdrawalResponseDTO
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/withdrawals [get]
func (h *WithdrawalHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	withdrawals, err := h.withdrawalService.ListOwn(r.Context(), actor)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	respondList(w, withdrawals)
}

// Queue godoc
//
//	@Summary		Withdrawal queue
//	@Description	Operator view of withdrawal requests in one status, oldest first.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"pending, processing, completed or rejected"	default(pending)
//	@Success		200		{array}		dto.WithdrawalResponseDTO
//	@Failure		400		{object}	utils.Response	"Unknown status"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Operators only"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/withdrawals/queue [get]
func (h *WithdrawalHandler) Queue(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status := domain.WithdrawalStatus(r.URL.Query().Get("status"))
	withdrawals, err := h.withdrawalService.ListByStatus(r.Context(), actor, status)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	respondList(w, withdrawals)
}

// MarkProcessing godoc
//
//	@Summary	Start processing a withdrawal
//	@Tags		Withdrawals
//	@Security	BearerAuth
//	@Produce	json
//	@Param		withdrawalID	path		string	true	"Withdrawal ID"
//	@Success	200				{object}	dto.WithdrawalResponseDTO
//	@Failure	401				{object}	utils.Response	"User not authorized"
//	@Failure	403				{object}	utils.Response	"Operators only"
//	@Failure	404				{object}	utils.Response	"Withdrawal not found"
//	@Failure	409				{object}	utils.Response	"Invalid transition"
//	@Failure	500				{object}	utils.Response	"Internal server error"
//	@Router		/api/withdrawals/{withdrawalID}/processing [post]
func (h *WithdrawalHandler) MarkProcessing(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.withdrawalService.MarkProcessing)
}

// Complete godoc
//
//	@Summary		Complete a withdrawal
//	@Description	Records the payout in the ledger. The amount left the available balance when the request was made.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Produce		json
//	@Param			withdrawalID	path		string	true	"Withdrawal ID"
//	@Success		200				{object}	dto.WithdrawalResponseDTO
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		403				{object}	utils.Response	"Operators only"
//	@Failure		404				{object}	utils.Response	"Withdrawal not found"
//	@Failure		409				{object}	utils.Response	"Invalid transition"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/withdrawals/{withdrawalID}/complete [post]
func (h *WithdrawalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.withdrawalService.Complete)
}

// Reject godoc
//
//	@Summary		Reject a withdrawal
//	@Description	Returns the reserved amount to the available balance.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			withdrawalID	path		string							true	"Withdrawal ID"
//	@Param			request			body		dto.RejectWithdrawalRequestDTO	false	"Reason"
//	@Success		200				{object}	dto.WithdrawalResponseDTO
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		403				{object}	utils.Response	"Operators only"
//	@Failure		404				{object}	utils.Response	"Withdrawal not found"
//	@Failure		409				{object}	utils.Response	"Invalid transition"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/withdrawals/{withdrawalID}/reject [post]
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req dto.RejectWithdrawalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Withdrawal, error) {
		return h.withdrawalService.Reject(ctx, actor, id, req.Notes)
	})
}

func (h *WithdrawalHandler) respond(w http.ResponseWriter, r *http.Request,
	call func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Withdrawal, error)) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := utils.PathUUID(r, "withdrawalID")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	withdrawal, err := call(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewWithdrawalResponse(withdrawal))
}

func respondList(w http.ResponseWriter, withdrawals []domain.Withdrawal) {
	response := make([]dto.WithdrawalResponseDTO, len(withdrawals))
	for i := range withdrawals {
		response[i] = dto.NewWithdrawalResponse(&withdrawals[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
