// Package memstore is an in-memory stand-in for the PostgreSQL repositories.
// Transactions are serialized and rolled back by restoring a snapshot, which
// is enough to exercise service-level atomicity and locking in tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

// ErrCheckViolation mirrors a failed CHECK constraint.
var ErrCheckViolation = errors.New("check constraint violated")

type txKey struct{ s *Store }

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data data

	failures map[string]error
}

type data struct {
	contracts      map[uuid.UUID]domain.Contract
	escrows        map[uuid.UUID]domain.Escrow
	transitions    map[uuid.UUID][]domain.EscrowTransition
	transitionSeq  int64
	wallets        map[uuid.UUID]domain.Wallet
	entries        []domain.WalletTransaction
	withdrawals    map[uuid.UUID]domain.Withdrawal
	withdrawalList []uuid.UUID
}

func New() *Store {
	return &Store{
		data: data{
			contracts:   map[uuid.UUID]domain.Contract{},
			escrows:     map[uuid.UUID]domain.Escrow{},
			transitions: map[uuid.UUID][]domain.EscrowTransition{},
			wallets:     map[uuid.UUID]domain.Wallet{},
			withdrawals: map[uuid.UUID]domain.Withdrawal{},
		},
		failures: map[string]error{},
	}
}

var _ pg.TXManager = (*Store)(nil)

// Begin runs fn as one transaction under a store-wide lock, so transactions
// never interleave. Nested calls join the running one. Any
// error, panic or context cancellation restores the state seen at the start.
func (s *Store) Begin(ctx context.Context, fn pg.TransactionalFn) (err error) {
	if ctx.Value(txKey{s}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{s}, true)); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FailOn makes every later call of the named repository method return err.
// Pass a nil error to clear it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	return s.failures[method]
}

func (s *Store) snapshot() data {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.data
	d.contracts = maps.Clone(d.contracts)
	d.escrows = maps.Clone(d.escrows)
	d.transitions = maps.Clone(d.transitions)
	for k, v := range d.transitions {
		d.transitions[k] = slices.Clone(v)
	}
	d.wallets = maps.Clone(d.wallets)
	d.entries = slices.Clone(d.entries)
	d.withdrawals = maps.Clone(d.withdrawals)
	d.withdrawalList = slices.Clone(d.withdrawalList)
	return d
}

func (s *Store) restore(d data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
}

func (s *Store) Contracts() *Contracts { return &Contracts{s} }
func (s *Store) Escrows() *Escrows { return &Escrows{s} }
func (s *Store) Wallets() *Wallets { return &Wallets{s} }
func (s *Store) Entries() *Entries { return &Entries{s} }
func (s *Store) Withdrawals() *Withdrawals { return &Withdrawals{s} }
