package withdrawalrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

const withdrawalColumns = `id, user_id, amount, bank_details, status, notes, processed_by, processed_at, created_at, updated_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, w *domain.Withdrawal) error {
	details, err := json.Marshal(w.BankDetails)
	if err != nil {
		return fmt.Errorf("encode bank details: %w", err)
	}
	query := `
		INSERT INTO withdrawal_requests (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		w.ID, w.UserID, w.Amount, details, string(w.Status), w.Notes,
		w.ProcessedBy, w.ProcessedAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		zap.L().Error("can't save withdrawal request", zap.Error(err))
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetForUpdate locks the request row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *Repository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get withdrawal request", zap.Error(err))
		return nil, fmt.Errorf("select withdrawal request: %w", err)
	}
	return w, nil
}

func (r *Repository) Update(ctx context.Context, w *domain.Withdrawal) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, notes = $2, processed_by = $3, processed_at = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query, string(w.Status), w.Notes, w.ProcessedBy, w.ProcessedAt, w.UpdatedAt, w.ID)
	if err != nil {
		zap.L().Error("failed to update withdrawal request", zap.Error(err))
		return fmt.Errorf("update withdrawal request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

// ListByStatus returns the operator queue, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, string(status))
}

// SumOpenByUser is the amount currently reserved by pending and processing requests.
func (r *Repository) SumOpenByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM withdrawal_requests
		WHERE user_id = $1 AND status IN ('pending', 'processing')
	`
	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		zap.L().Error("failed to sum open withdrawals", zap.Error(err))
		return decimal.Zero, fmt.Errorf("sum open withdrawals: %w", err)
	}
	return sum, nil
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		zap.L().Error("failed to fetch withdrawal requests", zap.Error(err))
		return nil, fmt.Errorf("select withdrawal requests: %w", err)
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, fmt.Errorf("scan withdrawal request: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawal requests: %w", err)
	}
	return withdrawals, nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var (
		w       domain.Withdrawal
		details []byte
		status  string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &details, &status, &w.Notes,
		&w.ProcessedBy, &w.ProcessedAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &w.BankDetails); err != nil {
		return nil, fmt.Errorf("decode bank details: %w", err)
	}
	w.Status = domain.WithdrawalStatus(status)
	return &w, nil
}
