package entryrepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

const entryColumns = `id, wallet_id, type, balance_type, amount, description, reference_type, reference_id, balance_after, created_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Append writes a ledger entry. Entries are never updated or deleted.
func (r *Repository) Append(ctx context.Context, entry *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.WalletID, string(entry.Type), string(entry.BalanceType), entry.Amount, entry.Description,
		string(entry.ReferenceType), entry.ReferenceID, entry.BalanceAfter, entry.CreatedAt,
	)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return domain.ErrDuplicateEntry
		}
		zap.L().Error("can't save ledger entry", zap.Error(err))
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListByWallet returns a page of entries, newest first.
func (r *Repository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, walletID, limit, offset)
}

// ListAllByWallet returns the full ledger of a wallet in the order it was written.
func (r *Repository) ListAllByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.WalletTransaction, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, walletID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.WalletTransaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch ledger entries", zap.Error(err))
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.WalletTransaction
	for rows.Next() {
		var (
			e                        domain.WalletTransaction
			typ, balanceType, refTyp string
		)
		err := rows.Scan(&e.ID, &e.WalletID, &typ, &balanceType, &e.Amount, &e.Description,
			&refTyp, &e.ReferenceID, &e.BalanceAfter, &e.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan ledger entry row", zap.Error(err))
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Type, e.BalanceType, e.ReferenceType = domain.EntryType(typ), domain.BalanceType(balanceType), domain.ReferenceType(refTyp)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
