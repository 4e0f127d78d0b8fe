package postgres

import (
	"context"
	"fmt"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const simulationColumns = `id, user_id, name, type, value, start_date, end_date, is_active, created_at`

// SimulationRepository implements domain.SimulationRepository using PostgreSQL
type SimulationRepository struct {
	pool *pgxpool.Pool
}

// NewSimulationRepository creates a new SimulationRepository
func NewSimulationRepository(pool *pgxpool.Pool) *SimulationRepository {
	return &SimulationRepository{pool: pool}
}

// Create creates a new simulation
func (r *SimulationRepository) Create(simulation *domain.Simulation) (*domain.Simulation, error) {
	value, err := decimalToPgNumeric(simulation.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO simulations (user_id, name, type, value, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+simulationColumns,
		simulation.UserID, simulation.Name, string(simulation.Type), value,
		timeToPgDate(simulation.StartDate), timePtrToPgDate(simulation.EndDate), simulation.IsActive)
	created, err := scanSimulation(row)
	if err != nil {
		return nil, domain.StorageError("create simulation", err)
	}
	return created, nil
}

// GetByID retrieves a simulation by its ID for a user
func (r *SimulationRepository) GetByID(userID int32, id int32) (*domain.Simulation, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+simulationColumns+` FROM simulations WHERE user_id = $1 AND id = $2`, userID, id)
	simulation, err := scanSimulation(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrSimulationNotFound, "get simulation")
	}
	return simulation, nil
}

// ListByUser returns a user's simulations newest first
func (r *SimulationRepository) ListByUser(userID int32) ([]*domain.Simulation, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+simulationColumns+` FROM simulations WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, domain.StorageError("list simulations", err)
	}
	defer rows.Close()

	simulations := make([]*domain.Simulation, 0)
	for rows.Next() {
		s, err := scanSimulation(rows)
		if err != nil {
			return nil, domain.StorageError("scan simulation", err)
		}
		simulations = append(simulations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list simulations", err)
	}
	return simulations, nil
}

// Update writes every editable field of the simulation
func (r *SimulationRepository) Update(simulation *domain.Simulation) (*domain.Simulation, error) {
	value, err := decimalToPgNumeric(simulation.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	row := r.pool.QueryRow(context.Background(), `
		UPDATE simulations SET
			name = $3, type = $4, value = $5, start_date = $6, end_date = $7, is_active = $8
		WHERE user_id = $1 AND id = $2
		RETURNING `+simulationColumns,
		simulation.UserID, simulation.ID, simulation.Name, string(simulation.Type), value,
		timeToPgDate(simulation.StartDate), timePtrToPgDate(simulation.EndDate), simulation.IsActive)
	updated, err := scanSimulation(row)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrSimulationNotFound, "update simulation")
	}
	return updated, nil
}

// Delete removes a simulation
func (r *SimulationRepository) Delete(userID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM simulations WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return domain.StorageError("delete simulation", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSimulationNotFound
	}
	return nil
}

func scanSimulation(row rowScanner) (*domain.Simulation, error) {
	var (
		s         domain.Simulation
		simType   string
		value     pgtype.Numeric
		startDate pgtype.Date
		endDate   pgtype.Date
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &simType, &value, &startDate, &endDate, &s.IsActive, &createdAt); err != nil {
		return nil, err
	}
	s.Type = domain.TransactionType(simType)
	s.Value = pgNumericToDecimal(value)
	s.StartDate = domain.DateOnly(startDate.Time)
	s.EndDate = pgDateToTimePtr(endDate)
	s.CreatedAt = createdAt.Time
	return &s, nil
}
