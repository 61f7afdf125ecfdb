package walletrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

const walletColumns = `id, user_id, available_balance, pending_balance, total_earned, created_at, updated_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateIfMissing inserts an empty wallet for the user unless one exists.
func (r *Repository) CreateIfMissing(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO wallets (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, uuid.New(), userID, time.Now())
	if err != nil {
		zap.L().Error("can't create wallet", zap.Error(err))
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.get(ctx, query, userID)
}

// GetForUpdate locks the wallet row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.get(ctx, query, userID)
}

func (r *Repository) get(ctx context.Context, query string, userID uuid.UUID) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&wallet.ID, &wallet.UserID, &wallet.AvailableBalance, &wallet.PendingBalance,
		&wallet.TotalEarned, &wallet.CreatedAt, &wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get wallet", zap.Error(err))
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	return &wallet, nil
}

func (r *Repository) UpdateBalances(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets
		SET available_balance = $1, pending_balance = $2, total_earned = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		wallet.AvailableBalance, wallet.PendingBalance, wallet.TotalEarned, wallet.UpdatedAt, wallet.ID,
	)
	if err != nil {
		zap.L().Error("failed to update wallet balances", zap.Error(err))
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
