package contracts

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/dto"
	"github.com/GlebRadaev/escrowpay/internal/handlers/apierr"
	"github.com/GlebRadaev/escrowpay/internal/service/paymentservice"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
	"github.com/GlebRadaev/escrowpay/pkg/utils"
)

type Service interface {
	AcceptProposal(ctx context.Context, actor domain.Actor, p paymentservice.ProposalAccepted) (*domain.Contract, *domain.Escrow, error)
	GetContract(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Contract, error)
	GetEscrowByContract(ctx context.Context, actor domain.Actor, contractID uuid.UUID) (*domain.Escrow, error)
}

type ContractHandler struct {
	contractService Service
}

func New(contractService Service) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

// AcceptProposal godoc
//
//	@Summary		Accept a proposal
//	@Description	Create a contract between the calling client and the freelancer together with its escrow in pending_payment.
//	@Tags			Contracts
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AcceptProposalRequestDTO	true	"Accepted proposal"
//	@Success		201		{object}	dto.AcceptProposalResponseDTO
//	@Failure		400		{object}	utils.Response	"Malformed request"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Only clients accept proposals"
//	@Failure		409		{object}	utils.Response	"An active contract already exists"
//	@Failure		422		{object}	utils.Response	"Invalid amount"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/contracts [post]
func (h *ContractHandler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.AcceptProposalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contract, escrow, err := h.contractService.AcceptProposal(r.Context(), actor, paymentservice.ProposalAccepted{
		ProjectID:    req.ProjectID,
		FreelancerID: req.FreelancerID,
		Amount:       req.Amount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.AcceptProposalResponseDTO{
		Contract: dto.NewContractResponse(contract),
		Escrow:   dto.NewEscrowResponse(escrow),
	})
}

// GetContract godoc
//
//	@Summary	Get a contract
//	@Tags		Contracts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		contractID	path		string	true	"Contract ID"
//	@Success	200			{object}	dto.ContractResponseDTO
//	@Failure	400			{object}	utils.Response	"Malformed contract id"
//	@Failure	401			{object}	utils.Response	"User not authorized"
//	@Failure	404			{object}	utils.Response	"Contract not found"
//	@Failure	500			{object}	utils.Response	"Internal server error"
//	@Router		/api/contracts/{contractID} [get]
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.request(w, r)
	if !ok {
		return
	}

	contract, err := h.contractService.GetContract(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewContractResponse(contract))
}

// GetEscrow godoc
//
//	@Summary	Get the escrow of a contract
//	@Tags		Contracts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		contractID	path		string	true	"Contract ID"
//	@Success	200			{object}	dto.EscrowResponseDTO
//	@Failure	400			{object}	utils.Response	"Malformed contract id"
//	@Failure	401			{object}	utils.Response	"User not authorized"
//	@Failure	404			{object}	utils.Response	"Escrow not found"
//	@Failure	500			{object}	utils.Response	"Internal server error"
//	@Router		/api/contracts/{contractID}/escrow [get]
func (h *ContractHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.request(w, r)
	if !ok {
		return
	}

	escrow, err := h.contractService.GetEscrowByContract(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewEscrowResponse(escrow))
}

func (h *ContractHandler) request(w http.ResponseWriter, r *http.Request) (domain.Actor, uuid.UUID, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return actor, uuid.Nil, false
	}
	id, err := utils.PathUUID(r, "contractID")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return actor, uuid.Nil, false
	}
	return actor, id, true
}
