package postgres

import (
	"context"
	"fmt"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `t.id, t.user_id, t.account_id, t.category_id, t.type, t.value, t.date,
	t.description, t.payment_method, t.is_fixed, t.is_parceled, t.total_parcels, t.parcel_number,
	ct.card_id, t.created_at`

const transactionFrom = ` FROM transactions t LEFT JOIN card_transactions ct ON ct.transaction_id = t.id`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts the transaction and its card link inside one database transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()
	value, err := decimalToPgNumeric(transaction.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.StorageError("begin create transaction", err)
	}
	defer tx.Rollback(ctx)

	var id int32
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, account_id, category_id, type, value, date, description,
			payment_method, is_fixed, is_parceled, total_parcels, parcel_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		transaction.UserID, transaction.AccountID, transaction.CategoryID, string(transaction.Type),
		value, timeToPgDate(transaction.Date), transaction.Description, string(transaction.PaymentMethod),
		transaction.IsFixed, transaction.IsParceled, transaction.TotalParcels, transaction.ParcelNumber,
	).Scan(&id)
	if err != nil {
		return nil, domain.StorageError("create transaction", err)
	}

	if err := linkCard(ctx, tx, id, transaction); err != nil {
		return nil, err
	}

	created, err := scanTransaction(tx.QueryRow(ctx,
		`SELECT `+transactionColumns+transactionFrom+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, domain.StorageError("reload transaction", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.StorageError("commit create transaction", err)
	}
	return created, nil
}

// GetByID retrieves a transaction by its ID for a user
func (r *TransactionRepository) GetByID(userID int32, id int32) (*domain.Transaction, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+transactionColumns+transactionFrom+` WHERE t.user_id = $1 AND t.id = $2`, userID, id)
	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrTransactionNotFound, "get transaction")
	}
	return transaction, nil
}

// ListByUser returns a user's transactions most recent first; limit <= 0 returns all
func (r *TransactionRepository) ListByUser(userID int32, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + transactionFrom +
		` WHERE t.user_id = $1 ORDER BY t.date DESC, t.id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(query, args...)
}

// ListByDateRange returns a user's transactions dated within the inclusive range, oldest first
func (r *TransactionRepository) ListByDateRange(userID int32, dateRange domain.DateRange) ([]*domain.Transaction, error) {
	return r.list(`SELECT `+transactionColumns+transactionFrom+`
		WHERE t.user_id = $1 AND t.date >= $2 AND t.date <= $3
		ORDER BY t.date, t.id`,
		userID, timeToPgDate(dateRange.Start), timeToPgDate(dateRange.End))
}

// Update rewrites the transaction and replaces its card link inside one database transaction
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()
	value, err := decimalToPgNumeric(transaction.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.StorageError("begin update transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE transactions SET
			account_id = $3, category_id = $4, type = $5, value = $6, date = $7, description = $8,
			payment_method = $9, is_fixed = $10, is_parceled = $11, total_parcels = $12, parcel_number = $13
		WHERE user_id = $1 AND id = $2`,
		transaction.UserID, transaction.ID, transaction.AccountID, transaction.CategoryID,
		string(transaction.Type), value, timeToPgDate(transaction.Date), transaction.Description,
		string(transaction.PaymentMethod), transaction.IsFixed, transaction.IsParceled,
		transaction.TotalParcels, transaction.ParcelNumber)
	if err != nil {
		return nil, domain.StorageError("update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTransactionNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM card_transactions WHERE transaction_id = $1`, transaction.ID); err != nil {
		return nil, domain.StorageError("unlink card", err)
	}
	if err := linkCard(ctx, tx, transaction.ID, transaction); err != nil {
		return nil, err
	}

	updated, err := scanTransaction(tx.QueryRow(ctx,
		`SELECT `+transactionColumns+transactionFrom+` WHERE t.id = $1`, transaction.ID))
	if err != nil {
		return nil, domain.StorageError("reload transaction", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.StorageError("commit update transaction", err)
	}
	return updated, nil
}

// Delete removes a transaction; its card link cascades
func (r *TransactionRepository) Delete(userID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return domain.StorageError("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// GetAccountTotals returns income, expense and transfer sums for every account of a user.
// Accounts with no movements are included with zero sums.
func (r *TransactionRepository) GetAccountTotals(userID int32) ([]*domain.AccountTotals, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT a.id,
			COALESCE((SELECT SUM(value) FROM transactions WHERE account_id = a.id AND type = 'income'), 0),
			COALESCE((SELECT SUM(value) FROM transactions WHERE account_id = a.id AND type = 'expense'), 0),
			COALESCE((SELECT SUM(value) FROM transfers WHERE to_account_id = a.id), 0),
			COALESCE((SELECT SUM(value) FROM transfers WHERE from_account_id = a.id), 0)
		FROM accounts a
		WHERE a.user_id = $1
		ORDER BY a.id`, userID)
	if err != nil {
		return nil, domain.StorageError("account totals", err)
	}
	defer rows.Close()

	totals := make([]*domain.AccountTotals, 0)
	for rows.Next() {
		var (
			t                           domain.AccountTotals
			income, expenses, tIn, tOut pgtype.Numeric
		)
		if err := rows.Scan(&t.AccountID, &income, &expenses, &tIn, &tOut); err != nil {
			return nil, domain.StorageError("scan account totals", err)
		}
		t.SumIncome = pgNumericToDecimal(income)
		t.SumExpenses = pgNumericToDecimal(expenses)
		t.TransfersIn = pgNumericToDecimal(tIn)
		t.TransfersOut = pgNumericToDecimal(tOut)
		totals = append(totals, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("account totals", err)
	}
	return totals, nil
}

func (r *TransactionRepository) list(query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(context.Background(), query, args...)
	if err != nil {
		return nil, domain.StorageError("list transactions", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, domain.StorageError("scan transaction", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list transactions", err)
	}
	return transactions, nil
}

func linkCard(ctx context.Context, tx pgx.Tx, transactionID int32, transaction *domain.Transaction) error {
	if transaction.CardID == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO card_transactions (card_id, transaction_id, parcel_number)
		SELECT c.id, $2, $3 FROM cards c WHERE c.id = $1 AND c.user_id = $4`,
		*transaction.CardID, transactionID, transaction.ParcelNumber, transaction.UserID)
	if err != nil {
		return domain.StorageError("link card", err)
	}
	return nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t             domain.Transaction
		txType        string
		paymentMethod string
		value         pgtype.Numeric
		date          pgtype.Date
		cardID        pgtype.Int4
		createdAt     pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &txType, &value, &date,
		&t.Description, &paymentMethod, &t.IsFixed, &t.IsParceled, &t.TotalParcels, &t.ParcelNumber,
		&cardID, &createdAt)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.PaymentMethod = domain.PaymentMethod(paymentMethod)
	t.Value = pgNumericToDecimal(value)
	t.Date = domain.DateOnly(date.Time)
	t.CardID = pgInt4ToInt32Ptr(cardID)
	t.CreatedAt = createdAt.Time
	return &t, nil
}
