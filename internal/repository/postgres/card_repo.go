package postgres

import (
	"context"
	"fmt"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cardColumns = `id, user_id, name, brand, credit_limit, close_day, due_day, created_at`

// CardRepository implements domain.CardRepository using PostgreSQL
type CardRepository struct {
	pool *pgxpool.Pool
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return &CardRepository{pool: pool}
}

// Create creates a new card
func (r *CardRepository) Create(card *domain.Card) (*domain.Card, error) {
	limit, err := decimalToPgNumeric(card.CreditLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid credit limit: %w", err)
	}

	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO cards (user_id, name, brand, credit_limit, close_day, due_day)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+cardColumns,
		card.UserID, card.Name, string(card.Brand), limit, card.CloseDay, card.DueDay)
	created, err := scanCard(row)
	if err != nil {
		return nil, domain.StorageError("create card", err)
	}
	return created, nil
}

// GetByID retrieves a card by its ID for a user
func (r *CardRepository) GetByID(userID int32, id int32) (*domain.Card, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 AND id = $2`, userID, id)
	card, err := scanCard(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCardNotFound, "get card")
	}
	return card, nil
}

// GetAllByUser retrieves all cards of a user ordered by name
func (r *CardRepository) GetAllByUser(userID int32) ([]*domain.Card, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, domain.StorageError("list cards", err)
	}
	defer rows.Close()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, domain.StorageError("scan card", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list cards", err)
	}
	return cards, nil
}

// Update applies the non-nil fields of update to a card
func (r *CardRepository) Update(userID int32, id int32, update domain.CardUpdate) (*domain.Card, error) {
	var limit pgtype.Numeric
	if update.CreditLimit != nil {
		n, err := decimalToPgNumeric(*update.CreditLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid credit limit: %w", err)
		}
		limit = n
	}
	var brand pgtype.Text
	if update.Brand != nil {
		brand = pgtype.Text{String: string(*update.Brand), Valid: true}
	}
	var closeDay, dueDay pgtype.Int2
	if update.CloseDay != nil {
		closeDay = pgtype.Int2{Int16: int16(*update.CloseDay), Valid: true}
	}
	if update.DueDay != nil {
		dueDay = pgtype.Int2{Int16: int16(*update.DueDay), Valid: true}
	}

	row := r.pool.QueryRow(context.Background(), `
		UPDATE cards SET
			name = COALESCE($3, name),
			brand = COALESCE($4, brand),
			credit_limit = COALESCE($5, credit_limit),
			close_day = COALESCE($6, close_day),
			due_day = COALESCE($7, due_day)
		WHERE user_id = $1 AND id = $2
		RETURNING `+cardColumns,
		userID, id, stringPtrToPgText(update.Name), brand, limit, closeDay, dueDay)
	card, err := scanCard(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCardNotFound, "update card")
	}
	return card, nil
}

// Delete removes a card; its transaction links cascade, the transactions remain
func (r *CardRepository) Delete(userID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM cards WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return domain.StorageError("delete card", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

// GetUsageTotals returns the summed value of linked transactions for every card of a user
func (r *CardRepository) GetUsageTotals(userID int32) ([]*domain.CardUsageTotal, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT c.id, COALESCE(SUM(t.value), 0)
		FROM cards c
		LEFT JOIN card_transactions ct ON ct.card_id = c.id
		LEFT JOIN transactions t ON t.id = ct.transaction_id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.id`, userID)
	if err != nil {
		return nil, domain.StorageError("card usage totals", err)
	}
	defer rows.Close()

	totals := make([]*domain.CardUsageTotal, 0)
	for rows.Next() {
		var (
			cardID int32
			total  pgtype.Numeric
		)
		if err := rows.Scan(&cardID, &total); err != nil {
			return nil, domain.StorageError("scan card usage", err)
		}
		totals = append(totals, &domain.CardUsageTotal{CardID: cardID, Total: pgNumericToDecimal(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("card usage totals", err)
	}
	return totals, nil
}

// GetLinks returns the transaction links of one card
func (r *CardRepository) GetLinks(userID int32, cardID int32) ([]*domain.CardTransaction, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT ct.id, ct.card_id, ct.transaction_id, ct.parcel_number
		FROM card_transactions ct
		JOIN cards c ON c.id = ct.card_id
		WHERE c.user_id = $1 AND ct.card_id = $2
		ORDER BY ct.id`, userID, cardID)
	if err != nil {
		return nil, domain.StorageError("card links", err)
	}
	defer rows.Close()

	links := make([]*domain.CardTransaction, 0)
	for rows.Next() {
		var l domain.CardTransaction
		if err := rows.Scan(&l.ID, &l.CardID, &l.TransactionID, &l.ParcelNumber); err != nil {
			return nil, domain.StorageError("scan card link", err)
		}
		links = append(links, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("card links", err)
	}
	return links, nil
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		c                domain.Card
		brand            string
		limit            pgtype.Numeric
		closeDay, dueDay int16
		createdAt        pgtype.Timestamptz
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &brand, &limit, &closeDay, &dueDay, &createdAt); err != nil {
		return nil, err
	}
	c.Brand = domain.CardBrand(brand)
	c.CreditLimit = pgNumericToDecimal(limit)
	c.CloseDay = int(closeDay)
	c.DueDay = int(dueDay)
	c.CreatedAt = createdAt.Time
	return &c, nil
}
