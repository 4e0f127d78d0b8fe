package postgres

import (
	"context"
	"fmt"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, user_id, name, bank, type, initial_balance, created_at`

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	initialBalance, err := decimalToPgNumeric(account.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid initial balance: %w", err)
	}

	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO accounts (user_id, name, bank, type, initial_balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		account.UserID, account.Name, account.Bank, string(account.Type), initialBalance)
	created, err := scanAccount(row)
	if err != nil {
		return nil, domain.StorageError("create account", err)
	}
	return created, nil
}

// GetByID retrieves an account by its ID for a user
func (r *AccountRepository) GetByID(userID int32, id int32) (*domain.Account, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND id = $2`, userID, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrAccountNotFound, "get account")
	}
	return account, nil
}

// GetAllByUser retrieves all accounts of a user ordered by name
func (r *AccountRepository) GetAllByUser(userID int32) ([]*domain.Account, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, domain.StorageError("list accounts", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, domain.StorageError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list accounts", err)
	}
	return accounts, nil
}

// Update applies the non-nil fields of update to an account
func (r *AccountRepository) Update(userID int32, id int32, update domain.AccountUpdate) (*domain.Account, error) {
	var initialBalance pgtype.Numeric
	if update.InitialBalance != nil {
		n, err := decimalToPgNumeric(*update.InitialBalance)
		if err != nil {
			return nil, fmt.Errorf("invalid initial balance: %w", err)
		}
		initialBalance = n
	}
	var accountType pgtype.Text
	if update.Type != nil {
		accountType = pgtype.Text{String: string(*update.Type), Valid: true}
	}

	row := r.pool.QueryRow(context.Background(), `
		UPDATE accounts SET
			name = COALESCE($3, name),
			bank = COALESCE($4, bank),
			type = COALESCE($5, type),
			initial_balance = COALESCE($6, initial_balance)
		WHERE user_id = $1 AND id = $2
		RETURNING `+accountColumns,
		userID, id, stringPtrToPgText(update.Name), stringPtrToPgText(update.Bank), accountType, initialBalance)
	account, err := scanAccount(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrAccountNotFound, "update account")
	}
	return account, nil
}

// Delete removes an account together with its transactions and transfers
func (r *AccountRepository) Delete(userID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM accounts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return domain.StorageError("delete account", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a              domain.Account
		accountType    string
		initialBalance pgtype.Numeric
		createdAt      pgtype.Timestamptz
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Bank, &accountType, &initialBalance, &createdAt); err != nil {
		return nil, err
	}
	a.Type = domain.AccountType(accountType)
	a.InitialBalance = pgNumericToDecimal(initialBalance)
	a.CreatedAt = createdAt.Time
	return &a, nil
}
