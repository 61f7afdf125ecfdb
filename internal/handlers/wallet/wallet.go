package wallet

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

const defaultLimit = 20

type Service interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error)
}

type WalletHandler struct {
	walletService Service
}

func New(walletService Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetWallet godoc
//
//	@Summary		Get own wallet
//	@Description	Available, pending and total earned balances of the authenticated user.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.WalletResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"No wallet yet"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/wallet [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	wallet, err := h.walletService.GetWallet(r.Context(), actor.ID)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewWalletResponse(wallet))
}

// GetTransactions godoc
//
//	@Summary		List own ledger entries
//	@Description	Ledger entries of the authenticated user's wallet, newest first.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Page size, at most 100"	default(20)
//	@Param			offset	query		int	false	"Entries to skip"			default(0)
//	@Success		200		{array}		dto.WalletTransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Malformed paging parameters"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"No wallet yet"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/wallet/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	limit, err := utils.QueryInt(r, "limit", defaultLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := utils.QueryInt(r, "offset", 0)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.walletService.ListTransactions(r.Context(), actor.ID, limit, offset)
	if err != nil {
		apierr.Write(w, actor, err)
		return
	}
	response := make([]dto.WalletTransactionResponseDTO, len(entries))
	for i, e := range entries {
		response[i] = dto.NewWalletTransactionResponse(e)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
