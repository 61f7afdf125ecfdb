package service

import (
	"github.com/GlebRadaev/escrowpay/internal/handlers/contracts"
	"github.com/GlebRadaev/escrowpay/internal/handlers/escrow"
	"github.com/GlebRadaev/escrowpay/internal/handlers/wallet"
	"github.com/GlebRadaev/escrowpay/internal/handlers/withdrawals"
	"github.com/GlebRadaev/escrowpay/internal/pg"
	"github.com/GlebRadaev/escrowpay/internal/repo"
	"github.com/GlebRadaev/escrowpay/internal/service/ledgerservice"
	"github.com/GlebRadaev/escrowpay/internal/service/paymentservice"
	"github.com/GlebRadaev/escrowpay/internal/service/withdrawalservice"
)

type Publisher interface {
	paymentservice.Publisher
}

type Services struct {
	ContractService   contracts.Service
	EscrowService     escrow.Service
	WalletService     wallet.Service
	WithdrawalService withdrawals.Service
	Ledger            *ledgerservice.Service
}

func New(repos *repo.Repositories, txManager pg.TXManager, publisher Publisher, opts paymentservice.Options) *Services {
	ledger := ledgerservice.New(txManager, repos.WalletRepo, repos.EntryRepo, repos.WithdrawalRepo)
	payments := paymentservice.New(txManager, repos.ContractRepo, repos.EscrowRepo, ledger, publisher, opts)
	withdrawalService := withdrawalservice.New(txManager, repos.WithdrawalRepo, ledger, publisher)

	return &Services{
		ContractService:   payments,
		EscrowService:     payments,
		WalletService:     ledger,
		WithdrawalService: withdrawalService,
		Ledger:            ledger,
	}
}
