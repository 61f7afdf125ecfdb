package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/escrowpay/docs"
	contracthandlers "github.com/GlebRadaev/escrowpay/internal/handlers/contracts"
	escrowhandlers "github.com/GlebRadaev/escrowpay/internal/handlers/escrow"
	wallethandlers "github.com/GlebRadaev/escrowpay/internal/handlers/wallet"
	withdrawalhandlers "github.com/GlebRadaev/escrowpay/internal/handlers/withdrawals"
	"github.com/GlebRadaev/escrowpay/internal/metrics"
	"github.com/GlebRadaev/escrowpay/internal/service"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
)

type ContractHandler interface {
	AcceptProposal(w http.ResponseWriter, r *http.Request)
	GetContract(w http.ResponseWriter, r *http.Request)
	GetEscrow(w http.ResponseWriter, r *http.Request)
}

type EscrowHandler interface {
	GetEscrow(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	ConfirmPayment(w http.ResponseWriter, r *http.Request)
	CompleteWork(w http.ResponseWriter, r *http.Request)
	Release(w http.ResponseWriter, r *http.Request)
	Dispute(w http.ResponseWriter, r *http.Request)
	Refund(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetWallet(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type WithdrawalHandler interface {
	Request(w http.ResponseWriter, r *http.Request)
	ListOwn(w http.ResponseWriter, r *http.Request)
	Queue(w http.ResponseWriter, r *http.Request)
	MarkProcessing(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	ContractHandler   ContractHandler
	EscrowHandler     EscrowHandler
	WalletHandler     WalletHandler
	WithdrawalHandler WithdrawalHandler

	validator auth.TokenValidator
}

func New(s *service.Services, validator auth.TokenValidator) *Handlers {
	return &Handlers{
		ContractHandler:   contracthandlers.New(s.ContractService),
		EscrowHandler:     escrowhandlers.New(s.EscrowService),
		WalletHandler:     wallethandlers.New(s.WalletService),
		WithdrawalHandler: withdrawalhandlers.New(s.WithdrawalService),
		validator:         validator,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(h.validator))

		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", h.ContractHandler.AcceptProposal)
			r.Get("/{contractID}", h.ContractHandler.GetContract)
			r.Get("/{contractID}/escrow", h.ContractHandler.GetEscrow)
		})
		r.Route("/escrows/{escrowID}", func(r chi.Router) {
			r.Get("/", h.EscrowHandler.GetEscrow)
			r.Get("/history", h.EscrowHandler.History)
			r.Post("/confirm-payment", h.EscrowHandler.ConfirmPayment)
			r.Post("/complete-work", h.EscrowHandler.CompleteWork)
			r.Post("/release", h.EscrowHandler.Release)
			r.Post("/dispute", h.EscrowHandler.Dispute)
			r.Post("/refund", h.EscrowHandler.Refund)
		})
		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.WalletHandler.GetWallet)
			r.Get("/transactions", h.WalletHandler.GetTransactions)
		})
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", h.WithdrawalHandler.Request)
			r.Get("/", h.WithdrawalHandler.ListOwn)
			r.Get("/queue", h.WithdrawalHandler.Queue)
			r.Post("/{withdrawalID}/processing", h.WithdrawalHandler.MarkProcessing)
			r.Post("/{withdrawalID}/complete", h.WithdrawalHandler.Complete)
			r.Post("/{withdrawalID}/reject", h.WithdrawalHandler.Reject)
		})
	})

	return r
}
