package contractrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, contract *domain.Contract) error {
	query := `
		INSERT INTO contracts (id, project_id, client_id, freelancer_id, amount, status, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		contract.ID, contract.ProjectID, contract.ClientID, contract.FreelancerID,
		contract.Amount, string(contract.Status), contract.StartDate, contract.EndDate, contract.CreatedAt,
	)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return domain.ErrContractExists
		}
		zap.L().Error("can't save contract", zap.Error(err))
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	query := `
		SELECT id, project_id, client_id, freelancer_id, amount, status, start_date, end_date, created_at
		FROM contracts
		WHERE id = $1
	`
	var (
		contract domain.Contract
		status   string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&contract.ID, &contract.ProjectID, &contract.ClientID, &contract.FreelancerID,
		&contract.Amount, &status, &contract.StartDate, &contract.EndDate, &contract.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get contract", zap.Error(err))
		return nil, fmt.Errorf("select contract: %w", err)
	}
	contract.Status = domain.ContractStatus(status)
	return &contract, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ContractStatus) error {
	query := `
		UPDATE contracts
		SET status = $1
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		zap.L().Error("failed to update contract status", zap.Error(err))
		return fmt.Errorf("update contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
