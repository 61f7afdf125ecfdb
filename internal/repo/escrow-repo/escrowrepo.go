package escrowrepo

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

const escrowColumns = `id, contract_id, project_id, client_id, freelancer_id, amount, status, last_actor_id, last_action, created_at, updated_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, escrow *domain.Escrow) error {
	query := `
		INSERT INTO escrows (` + escrowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		escrow.ID, escrow.ContractID, escrow.ProjectID, escrow.ClientID, escrow.FreelancerID,
		escrow.Amount, string(escrow.Status), escrow.LastActorID, escrow.LastAction, escrow.CreatedAt, escrow.UpdatedAt,
	)
	if err != nil {
		zap.L().Error("can't save escrow", zap.Error(err))
		return fmt.Errorf("insert escrow: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *Repository) GetByContractID(ctx context.Context, contractID uuid.UUID) (*domain.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE contract_id = $1`
	return r.get(ctx, query, contractID)
}

// GetForUpdate locks the escrow row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *Repository) get(ctx context.Context, query string, arg uuid.UUID) (*domain.Escrow, error) {
	var (
		escrow domain.Escrow
		status string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&escrow.ID, &escrow.ContractID, &escrow.ProjectID, &escrow.ClientID, &escrow.FreelancerID,
		&escrow.Amount, &status, &escrow.LastActorID, &escrow.LastAction, &escrow.CreatedAt, &escrow.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get escrow", zap.Error(err))
		return nil, fmt.Errorf("select escrow: %w", err)
	}
	escrow.Status = domain.EscrowStatus(status)
	return &escrow, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, escrow *domain.Escrow) error {
	query := `
		UPDATE escrows
		SET status = $1, last_actor_id = $2, last_action = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, string(escrow.Status), escrow.LastActorID, escrow.LastAction, escrow.UpdatedAt, escrow.ID)
	if err != nil {
		zap.L().Error("failed to update escrow", zap.Error(err))
		return fmt.Errorf("update escrow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) AddTransition(ctx context.Context, t *domain.EscrowTransition) error {
	query := `
		INSERT INTO escrow_transitions (escrow_id, from_status, to_status, action, actor_id, actor_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		t.EscrowID, string(t.From), string(t.To), string(t.Action), t.ActorID, string(t.ActorRole), t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		zap.L().Error("can't save escrow transition", zap.Error(err))
		return fmt.Errorf("insert escrow transition: %w", err)
	}
	return nil
}

func (r *Repository) ListTransitions(ctx context.Context, escrowID uuid.UUID) ([]domain.EscrowTransition, error) {
	query := `
		SELECT id, escrow_id, from_status, to_status, action, actor_id, actor_role, created_at
		FROM escrow_transitions
		WHERE escrow_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, escrowID)
	if err != nil {
		zap.L().Error("failed to fetch escrow transitions", zap.Error(err))
		return nil, fmt.Errorf("select escrow transitions: %w", err)
	}
	defer rows.Close()

	var transitions []domain.EscrowTransition
	for rows.Next() {
		var (
			t                      domain.EscrowTransition
			from, to, action, role string
		)
		if err := rows.Scan(&t.ID, &t.EscrowID, &from, &to, &action, &t.ActorID, &role, &t.CreatedAt); err != nil {
			zap.L().Error("failed to scan escrow transition row", zap.Error(err))
			return nil, fmt.Errorf("scan escrow transition: %w", err)
		}
		t.From, t.To = domain.EscrowStatus(from), domain.EscrowStatus(to)
		t.Action, t.ActorRole = domain.EscrowAction(action), domain.Role(role)
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escrow transitions: %w", err)
	}
	return transitions, nil
}
