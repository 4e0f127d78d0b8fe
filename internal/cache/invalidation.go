package cache

import (
	"sort"
	"sync"
	"time"
)

// Mutation names a kind of ledger write
type Mutation string

const (
	MutationTransaction Mutation = "transaction"
	MutationTransfer    Mutation = "transfer"
	MutationAccount     Mutation = "account"
	MutationCard        Mutation = "card"
	MutationCategory    Mutation = "category"
	MutationSimulation  Mutation = "simulation"
)

// Dependencies maps each mutation to the derived aggregates it invalidates.
// Simulations feed only forecasts, which are never cached.
var Dependencies = map[Mutation][]Aggregate{
	MutationTransaction: {AggregateAccountBalance, AggregateCardUsage, AggregateMonthlySummary},
	MutationTransfer:    {AggregateAccountBalance},
	MutationAccount:     {AggregateAccountBalance},
	MutationCard:        {AggregateCardUsage},
	MutationCategory:    {AggregateMonthlySummary},
	MutationSimulation:  {},
}

// Change describes one write. Unless Scoped is set, an empty id or date list
// means the scope is unknown and every entry of that aggregate for the user is
// evicted. A Scoped change lists exactly what it touched.
type Change struct {
	Mutation   Mutation
	UserID     int32
	AccountIDs []int32
	CardIDs    []int32
	Dates      []time.Time
	Scoped     bool
}

// Invalidator evicts cached aggregates according to Dependencies
type Invalidator struct {
	mu      sync.RWMutex
	targets map[Aggregate][]Target
}

// NewInvalidator creates an Invalidator with no registered stores
func NewInvalidator() *Invalidator {
	return &Invalidator{targets: make(map[Aggregate][]Target)}
}

// Register attaches a store holding values of the given aggregate
func (i *Invalidator) Register(aggregate Aggregate, target Target) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.targets[aggregate] = append(i.targets[aggregate], target)
}

// Affected returns the aggregates a change invalidates, in stable order
func Affected(change Change) []Aggregate {
	deps := Dependencies[change.Mutation]
	out := make([]Aggregate, len(deps))
	copy(out, deps)
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Apply evicts every cached entry the change invalidates and returns the
// evicted keys. It also bumps the generation of each affected aggregate, so
// a read that overlapped the write cannot store its result afterwards.
func (i *Invalidator) Apply(change Change) []Key {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var removed []Key
	for _, aggregate := range Affected(change) {
		for _, target := range i.targets[aggregate] {
			removed = append(removed, evict(target, aggregate, change)...)
		}
	}
	return removed
}

func evict(target Target, aggregate Aggregate, change Change) []Key {
	target.Bump(change.UserID, aggregate)

	var entities []int32
	switch aggregate {
	case AggregateAccountBalance:
		entities = change.AccountIDs
	case AggregateCardUsage:
		entities = change.CardIDs
	case AggregateMonthlySummary:
		for _, d := range change.Dates {
			entities = append(entities, MonthEntity(d.Year(), int(d.Month())))
		}
	}

	if len(entities) == 0 {
		if change.Scoped {
			return nil
		}
		return target.DeleteUser(change.UserID, aggregate)
	}

	var removed []Key
	for _, id := range entities {
		key := Key{Aggregate: aggregate, UserID: change.UserID, EntityID: id}
		if target.Delete(key) {
			removed = append(removed, key)
		}
	}
	return removed
}
