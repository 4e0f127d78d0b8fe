package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Simulation is a hypothetical recurring monthly adjustment. It only ever
// affects forecasts, never the real ledger.
type Simulation struct {
	ID        int32           `json:"id"`
	UserID    int32           `json:"userId"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	Value     decimal.Decimal `json:"value"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AppliesTo reports whether the simulation covers the given calendar month.
// Comparison is month-granular: a simulation starting mid-month covers that
// whole month, and an open end date covers every later month.
func (s *Simulation) AppliesTo(year int, month time.Month) bool {
	key := year*12 + int(month) - 1
	startKey := s.StartDate.Year()*12 + int(s.StartDate.Month()) - 1
	if key < startKey {
		return false
	}
	if s.EndDate != nil {
		endKey := s.EndDate.Year()*12 + int(s.EndDate.Month()) - 1
		if key > endKey {
			return false
		}
	}
	return true
}

// SimulationUpdate carries the editable fields of a simulation; nil means unchanged
type SimulationUpdate struct {
	Name      *string
	Type      *TransactionType
	Value     *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
	ClearEnd  bool
	IsActive  *bool
}

type SimulationRepository interface {
	Create(simulation *Simulation) (*Simulation, error)
	GetByID(userID int32, id int32) (*Simulation, error)
	// ListByUser returns simulations newest first
	ListByUser(userID int32) ([]*Simulation, error)
	Update(simulation *Simulation) (*Simulation, error)
	Delete(userID int32, id int32) error
}
