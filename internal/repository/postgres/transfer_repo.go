package postgres

import (
	"context"
	"fmt"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transferColumns = `id, user_id, from_account_id, to_account_id, value, date, description, created_at`

// TransferRepository implements domain.TransferRepository using PostgreSQL
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// Create records a transfer as a single row
func (r *TransferRepository) Create(transfer *domain.Transfer) (*domain.Transfer, error) {
	value, err := decimalToPgNumeric(transfer.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO transfers (user_id, from_account_id, to_account_id, value, date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+transferColumns,
		transfer.UserID, transfer.FromAccountID, transfer.ToAccountID, value,
		timeToPgDate(transfer.Date), stringPtrToPgText(transfer.Description))
	created, err := scanTransfer(row)
	if err != nil {
		return nil, domain.StorageError("create transfer", err)
	}
	return created, nil
}

// GetByID retrieves a transfer by its ID for a user
func (r *TransferRepository) GetByID(userID int32, id int32) (*domain.Transfer, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+transferColumns+` FROM transfers WHERE user_id = $1 AND id = $2`, userID, id)
	transfer, err := scanTransfer(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrTransferNotFound, "get transfer")
	}
	return transfer, nil
}

// ListByUser returns a user's transfers most recent first
func (r *TransferRepository) ListByUser(userID int32) ([]*domain.Transfer, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+transferColumns+` FROM transfers WHERE user_id = $1 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, domain.StorageError("list transfers", err)
	}
	defer rows.Close()

	transfers := make([]*domain.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, domain.StorageError("scan transfer", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list transfers", err)
	}
	return transfers, nil
}

// Delete removes a transfer
func (r *TransferRepository) Delete(userID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM transfers WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return domain.StorageError("delete transfer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

func scanTransfer(row rowScanner) (*domain.Transfer, error) {
	var (
		t           domain.Transfer
		value       pgtype.Numeric
		date        pgtype.Date
		description pgtype.Text
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.FromAccountID, &t.ToAccountID, &value, &date, &description, &createdAt); err != nil {
		return nil, err
	}
	t.Value = pgNumericToDecimal(value)
	t.Date = domain.DateOnly(date.Time)
	t.Description = pgTextToStringPtr(description)
	t.CreatedAt = createdAt.Time
	return &t, nil
}
