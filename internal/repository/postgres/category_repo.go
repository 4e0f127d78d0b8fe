package postgres

import (
	"context"
	"errors"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// foreignKeyViolation is the SQLSTATE raised when a referenced row is deleted
const foreignKeyViolation = "23503"

const categoryColumns = `id, user_id, name, type, color, icon`

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO categories (user_id, name, type, color, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		category.UserID, category.Name, string(category.Type), category.Color, category.Icon)
	created, err := scanCategory(row)
	if err != nil {
		return nil, domain.StorageError("create category", err)
	}
	return created, nil
}

// GetByID retrieves a category by its ID for a user
func (r *CategoryRepository) GetByID(userID int32, id int32) (*domain.Category, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	category, err := scanCategory(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCategoryNotFound, "get category")
	}
	return category, nil
}

// GetAllByUser retrieves all categories of a user ordered by type then name
func (r *CategoryRepository) GetAllByUser(userID int32) ([]*domain.Category, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY type, name, id`, userID)
	if err != nil {
		return nil, domain.StorageError("list categories", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, domain.StorageError("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list categories", err)
	}
	return categories, nil
}

// Update applies the non-nil fields of update to a category
func (r *CategoryRepository) Update(userID int32, id int32, update domain.CategoryUpdate) (*domain.Category, error) {
	row := r.pool.QueryRow(context.Background(), `
		UPDATE categories SET
			name = COALESCE($3, name),
			color = COALESCE($4, color),
			icon = COALESCE($5, icon)
		WHERE user_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		userID, id, stringPtrToPgText(update.Name), stringPtrToPgText(update.Color), stringPtrToPgText(update.Icon))
	category, err := scanCategory(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrCategoryNotFound, "update category")
	}
	return category, nil
}

// Delete removes a category. Categories still referenced by transactions are kept.
func (r *CategoryRepository) Delete(userID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrCategoryInUse
		}
		return domain.StorageError("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c            domain.Category
		categoryType string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &categoryType, &c.Color, &c.Icon); err != nil {
		return nil, err
	}
	c.Type = domain.TransactionType(categoryType)
	return &c, nil
}
