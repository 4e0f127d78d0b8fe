package service

import (
	"strings"
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// SimulationService manages what-if simulations and overlays them on forecasts
type SimulationService struct {
	simulationRepo  domain.SimulationRepository
	forecastService *ForecastService
	notifier        *ChangeNotifier
}

// NewSimulationService creates a new SimulationService
func NewSimulationService(simulationRepo domain.SimulationRepository, forecastService *ForecastService) *SimulationService {
	return &SimulationService{
		simulationRepo:  simulationRepo,
		forecastService: forecastService,
	}
}

// SetNotifier sets the change notifier for cache invalidation and real-time updates
func (s *SimulationService) SetNotifier(notifier *ChangeNotifier) {
	s.notifier = notifier
}

// CreateSimulationInput holds the input for creating a simulation
type CreateSimulationInput struct {
	Name      string
	Type      domain.TransactionType
	Value     decimal.Decimal
	StartDate time.Time
	EndDate   *time.Time
	IsActive  *bool
}

// CreateSimulation validates and stores a new simulation. Simulations start active unless told otherwise.
func (s *SimulationService) CreateSimulation(userID int32, input CreateSimulationInput) (*domain.Simulation, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	sim := &domain.Simulation{
		UserID:    userID,
		Name:      name,
		Type:      input.Type,
		Value:     input.Value,
		StartDate: domain.DateOnly(input.StartDate),
		IsActive:  true,
	}
	if input.EndDate != nil {
		end := domain.DateOnly(*input.EndDate)
		sim.EndDate = &end
	}
	if input.IsActive != nil {
		sim.IsActive = *input.IsActive
	}
	if err := validateSimulation(sim); err != nil {
		return nil, err
	}

	created, err := s.simulationRepo.Create(sim)
	if err != nil {
		return nil, err
	}
	s.changed(userID, websocket.EntityCreated(websocket.EntityTypeSimulation, created))
	return created, nil
}

// GetSimulations returns the user's simulations newest first
func (s *SimulationService) GetSimulations(userID int32) ([]*domain.Simulation, error) {
	return s.simulationRepo.ListByUser(userID)
}

// GetSimulationByID retrieves one simulation
func (s *SimulationService) GetSimulationByID(userID int32, id int32) (*domain.Simulation, error) {
	return s.simulationRepo.GetByID(userID, id)
}

// UpdateSimulation applies a partial update
func (s *SimulationService) UpdateSimulation(userID int32, id int32, update domain.SimulationUpdate) (*domain.Simulation, error) {
	existing, err := s.simulationRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	sim := *existing
	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		sim.Name = name
	}
	if update.Type != nil {
		sim.Type = *update.Type
	}
	if update.Value != nil {
		sim.Value = *update.Value
	}
	if update.StartDate != nil {
		sim.StartDate = domain.DateOnly(*update.StartDate)
	}
	if update.ClearEnd {
		sim.EndDate = nil
	} else if update.EndDate != nil {
		end := domain.DateOnly(*update.EndDate)
		sim.EndDate = &end
	}
	if update.IsActive != nil {
		sim.IsActive = *update.IsActive
	}
	if err := validateSimulation(&sim); err != nil {
		return nil, err
	}

	updated, err := s.simulationRepo.Update(&sim)
	if err != nil {
		return nil, err
	}
	s.changed(userID, websocket.EntityUpdated(websocket.EntityTypeSimulation, updated))
	return updated, nil
}

// ToggleSimulation flips the active flag
func (s *SimulationService) ToggleSimulation(userID int32, id int32) (*domain.Simulation, error) {
	existing, err := s.simulationRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	active := !existing.IsActive
	return s.UpdateSimulation(userID, id, domain.SimulationUpdate{IsActive: &active})
}

// DeleteSimulation removes a simulation
func (s *SimulationService) DeleteSimulation(userID int32, id int32) error {
	if err := s.simulationRepo.Delete(userID, id); err != nil {
		return err
	}
	s.changed(userID, websocket.EntityDeleted(websocket.EntityTypeSimulation, map[string]int32{"id": id}))
	return nil
}

// Overlay projects the user's balances and overlays the selected simulations.
// With no ids every active simulation is used; ids may name inactive ones.
func (s *SimulationService) Overlay(userID int32, months int, ids []int32) (*domain.SimulationOverlay, error) {
	if months < domain.MinForecastMonths || months > domain.MaxForecastMonths {
		return nil, domain.ErrInvalidForecastMonths
	}

	selected, err := s.selectSimulations(userID, ids)
	if err != nil {
		return nil, err
	}

	base, err := s.forecastService.ProjectBalances(userID, months)
	if err != nil {
		return nil, err
	}
	return ApplySimulations(base, selected), nil
}

func (s *SimulationService) selectSimulations(userID int32, ids []int32) ([]*domain.Simulation, error) {
	all, err := s.simulationRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		active := make([]*domain.Simulation, 0, len(all))
		for _, sim := range all {
			if sim.IsActive {
				active = append(active, sim)
			}
		}
		return active, nil
	}

	byID := make(map[int32]*domain.Simulation, len(all))
	for _, sim := range all {
		byID[sim.ID] = sim
	}
	selected := make([]*domain.Simulation, 0, len(ids))
	seen := make(map[int32]bool, len(ids))
	for _, id := range ids {
		sim, ok := byID[id]
		if !ok {
			return nil, domain.ErrSimulationNotFound
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, sim)
	}
	return selected, nil
}

func (s *SimulationService) changed(userID int32, event websocket.Event) {
	s.notifier.Entity(userID, event)
	s.notifier.Changed(cache.Change{Mutation: cache.MutationSimulation, UserID: userID, Scoped: true})
}

func validateSimulation(sim *domain.Simulation) error {
	if !sim.Type.Valid() {
		return domain.ErrInvalidEntryType
	}
	if !domain.WholeCents(sim.Value) {
		return domain.ErrValuePrecision
	}
	if !sim.Value.IsPositive() {
		return domain.ErrInvalidValue
	}
	if sim.StartDate.IsZero() {
		return domain.ErrDateRequired
	}
	if sim.EndDate != nil && sim.EndDate.Before(sim.StartDate) {
		return domain.ErrEndBeforeStart
	}
	return nil
}

// validateName trims a display name and checks its length
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}
