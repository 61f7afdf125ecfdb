package repo

import (
	"github.com/GlebRadaev/escrowpay/internal/pg"
	contractrepo "github.com/GlebRadaev/escrowpay/internal/repo/contract-repo"
	entryrepo "github.com/GlebRadaev/escrowpay/internal/repo/entry-repo"
	escrowrepo "github.com/GlebRadaev/escrowpay/internal/repo/escrow-repo"
	walletrepo "github.com/GlebRadaev/escrowpay/internal/repo/wallet-repo"
	withdrawalrepo "github.com/GlebRadaev/escrowpay/internal/repo/withdrawal-repo"
	"github.com/GlebRadaev/escrowpay/internal/service/ledgerservice"
	"github.com/GlebRadaev/escrowpay/internal/service/paymentservice"
	"github.com/GlebRadaev/escrowpay/internal/service/withdrawalservice"
)

// WithdrawalRepo also answers how much of a wallet is reserved by open
// withdrawal requests.
type WithdrawalRepo interface {
	withdrawalservice.Repo
	ledgerservice.ReservationRepo
}

type Repositories struct {
	ContractRepo   paymentservice.ContractRepo
	EscrowRepo     paymentservice.EscrowRepo
	WalletRepo     ledgerservice.WalletRepo
	EntryRepo      ledgerservice.EntryRepo
	WithdrawalRepo WithdrawalRepo
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		ContractRepo:   contractrepo.New(conn),
		EscrowRepo:     escrowrepo.New(conn),
		WalletRepo:     walletrepo.New(conn),
		EntryRepo:      entryrepo.New(conn),
		WithdrawalRepo: withdrawalrepo.New(conn),
	}
}
