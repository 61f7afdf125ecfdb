package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/escrowpay/internal/domain"
)

type Contracts struct{ s *Store }

func (r *Contracts) Create(_ context.Context, c *domain.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Contracts.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.data.contracts {
		if existing.ProjectID == c.ProjectID && existing.FreelancerID == c.FreelancerID &&
			existing.Status != domain.ContractCancelled {
			return domain.ErrContractExists
		}
	}
	r.s.data.contracts[c.ID] = *c
	return nil
}

func (r *Contracts) GetByID(_ context.Context, id uuid.UUID) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *Contracts) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ContractStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Contracts.UpdateStatus"); err != nil {
		return err
	}
	c, ok := r.s.data.contracts[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = status
	r.s.data.contracts[id] = c
	return nil
}

type Escrows struct{ s *Store }

func (r *Escrows) Create(_ context.Context, e *domain.Escrow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Escrows.Create"); err != nil {
		return err
	}
	r.s.data.escrows[e.ID] = *e
	return nil
}

func (r *Escrows) GetByID(_ context.Context, id uuid.UUID) (*domain.Escrow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.escrows[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *Escrows) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Escrow, error) {
	return r.GetByID(ctx, id)
}

func (r *Escrows) GetByContractID(_ context.Context, contractID uuid.UUID) (*domain.Escrow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.data.escrows {
		if e.ContractID == contractID {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *Escrows) UpdateStatus(_ context.Context, e *domain.Escrow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Escrows.UpdateStatus"); err != nil {
		return err
	}
	stored, ok := r.s.data.escrows[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status, stored.LastActorID, stored.LastAction, stored.UpdatedAt = e.Status, e.LastActorID, e.LastAction, e.UpdatedAt
	r.s.data.escrows[e.ID] = stored
	return nil
}

func (r *Escrows) AddTransition(_ context.Context, t *domain.EscrowTransition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Escrows.AddTransition"); err != nil {
		return err
	}
	r.s.data.transitionSeq++
	t.ID = r.s.data.transitionSeq
	r.s.data.transitions[t.EscrowID] = append(r.s.data.transitions[t.EscrowID], *t)
	return nil
}

func (r *Escrows) ListTransitions(_ context.Context, escrowID uuid.UUID) ([]domain.EscrowTransition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.data.transitions[escrowID]), nil
}

type Wallets struct{ s *Store }

func (r *Wallets) CreateIfMissing(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.wallets[userID]; ok {
		return nil
	}
	r.s.data.wallets[userID] = domain.Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		TotalEarned:      decimal.Zero,
	}
	return nil
}

func (r *Wallets) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.data.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *Wallets) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *Wallets) UpdateBalances(_ context.Context, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Wallets.UpdateBalances"); err != nil {
		return err
	}
	if w.AvailableBalance.IsNegative() || w.PendingBalance.IsNegative() || w.TotalEarned.IsNegative() {
		return ErrCheckViolation
	}
	stored, ok := r.s.data.wallets[w.UserID]
	if !ok || stored.ID != w.ID {
		return domain.ErrNotFound
	}
	r.s.data.wallets[w.UserID] = *w
	return nil
}

type Entries struct{ s *Store }

func (r *Entries) Append(_ context.Context, e *domain.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Entries.Append"); err != nil {
		return err
	}
	for _, existing := range r.s.data.entries {
		if existing.WalletID == e.WalletID && existing.Type == e.Type &&
			existing.ReferenceType == e.ReferenceType && existing.ReferenceID == e.ReferenceID {
			return domain.ErrDuplicateEntry
		}
	}
	r.s.data.entries = append(r.s.data.entries, *e)
	return nil
}

func (r *Entries) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error) {
	all, _ := r.ListAllByWallet(ctx, walletID)
	slices.Reverse(all)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *Entries) ListAllByWallet(_ context.Context, walletID uuid.UUID) ([]domain.WalletTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.WalletTransaction
	for _, e := range r.s.data.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

type Withdrawals struct{ s *Store }

func (r *Withdrawals) Create(_ context.Context, w *domain.Withdrawal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Withdrawals.Create"); err != nil {
		return err
	}
	r.s.data.withdrawals[w.ID] = *w
	r.s.data.withdrawalList = append(r.s.data.withdrawalList, w.ID)
	return nil
}

func (r *Withdrawals) GetByID(_ context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.data.withdrawals[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *Withdrawals) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r *Withdrawals) Update(_ context.Context, w *domain.Withdrawal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Withdrawals.Update"); err != nil {
		return err
	}
	if _, ok := r.s.data.withdrawals[w.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.withdrawals[w.ID] = *w
	return nil
}

func (r *Withdrawals) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Withdrawal, error) {
	out := r.filter(func(w domain.Withdrawal) bool { return w.UserID == userID })
	slices.Reverse(out)
	return out, nil
}

func (r *Withdrawals) ListByStatus(_ context.Context, status domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	return r.filter(func(w domain.Withdrawal) bool { return w.Status == status }), nil
}

func (r *Withdrawals) SumOpenByUser(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, w := range r.filter(func(w domain.Withdrawal) bool { return w.UserID == userID && w.Status.Open() }) {
		sum = sum.Add(w.Amount)
	}
	return sum, nil
}

func (r *Withdrawals) filter(keep func(domain.Withdrawal) bool) []domain.Withdrawal {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Withdrawal
	for _, id := range r.s.data.withdrawalList {
		if w := r.s.data.withdrawals[id]; keep(w) {
			out = append(out, w)
		}
	}
	return out
}
