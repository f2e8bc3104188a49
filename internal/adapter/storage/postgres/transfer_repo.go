package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

const transferColumns = `id, tx_hash, recipient, amount, asset_symbol, provider, status, gasless, reference, created_at, confirmed_at`

// Create inserts a journal entry for an outbound transfer.
func (r *TransferRepo) Create(ctx context.Context, t *domain.TransferRecord) error {
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.TxHash, t.Recipient, t.Amount, t.AssetSymbol,
		t.Provider, t.Status, t.Gasless, t.Reference,
		t.CreatedAt, t.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID fetches a transfer by UUID. Returns (nil, nil) when absent.
func (r *TransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	return r.scanTransfer(r.pool.QueryRow(ctx, query, id))
}

// UpdateStatus moves a transfer through its lifecycle.
func (r *TransferRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransferStatus, confirmedAt *time.Time) error {
	query := `UPDATE transfers SET status = $1, confirmed_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, confirmedAt, id)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer not found: %s", id)
	}
	return nil
}

// List fetches transfers with filtering and pagination, newest first.
func (r *TransferRepo) List(ctx context.Context, params ports.TransferListParams) ([]domain.TransferRecord, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM transfers` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM transfers%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transferColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.TransferRecord
	for rows.Next() {
		var t domain.TransferRecord
		if err := rows.Scan(
			&t.ID, &t.TxHash, &t.Recipient, &t.Amount, &t.AssetSymbol,
			&t.Provider, &t.Status, &t.Gasless, &t.Reference,
			&t.CreatedAt, &t.ConfirmedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transfers: %w", err)
	}

	return transfers, total, nil
}

func (r *TransferRepo) scanTransfer(row pgx.Row) (*domain.TransferRecord, error) {
	var t domain.TransferRecord
	err := row.Scan(
		&t.ID, &t.TxHash, &t.Recipient, &t.Amount, &t.AssetSymbol,
		&t.Provider, &t.Status, &t.Gasless, &t.Reference,
		&t.CreatedAt, &t.ConfirmedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	return &t, nil
}
