package postgres

import (
	"context"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, auth0_id, email, name, created_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int32) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrUserNotFound, "get user")
	}
	return user, nil
}

// GetByAuth0ID retrieves a user by their Auth0 ID
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE auth0_id = $1`, auth0ID)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrUserNotFound, "get user by auth0 id")
	}
	return user, nil
}

// CreateOrGetByAuth0ID creates a new user or returns the existing one (upsert on login)
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO users (auth0_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (auth0_id) DO UPDATE
			SET email = EXCLUDED.email,
			    name = COALESCE(EXCLUDED.name, users.name)
		RETURNING `+userColumns,
		auth0ID, email, stringPtrToPgText(name))
	user, err := scanUser(row)
	if err != nil {
		return nil, domain.StorageError("upsert user", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		name      pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Auth0ID, &u.Email, &name, &createdAt); err != nil {
		return nil, err
	}
	u.Name = pgTextToStringPtr(name)
	u.CreatedAt = createdAt.Time
	return &u, nil
}
