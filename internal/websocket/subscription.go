package websocket

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/finora/finora-backend/internal/cache"
)

// ErrUnknownTopic is returned for an entity or aggregate name the feed does not publish
var ErrUnknownTopic = errors.New("unknown subscription topic")

var subscribableEntities = []EntityType{
	EntityTypeAccount,
	EntityTypeCategory,
	EntityTypeTransaction,
	EntityTypeCard,
	EntityTypeTransfer,
	EntityTypeSimulation,
	EntityTypeLedger,
}

var subscribableAggregates = []string{
	string(cache.AggregateAccountBalance),
	string(cache.AggregateCardUsage),
	string(cache.AggregateMonthlySummary),
}

// Subscription narrows the events a client receives. An empty Entities list
// means every entity; an empty Aggregates list means every ledger.invalidated
// event regardless of which derived views it names.
type Subscription struct {
	Entities   []EntityType `json:"entities"`
	Aggregates []string     `json:"aggregates"`
}

// NewSubscription validates entity and aggregate names
func NewSubscription(entities, aggregates []string) (Subscription, error) {
	var sub Subscription
	for _, name := range entities {
		entity := EntityType(name)
		if !slices.Contains(subscribableEntities, entity) {
			return Subscription{}, fmt.Errorf("entity %q: %w", name, ErrUnknownTopic)
		}
		if !slices.Contains(sub.Entities, entity) {
			sub.Entities = append(sub.Entities, entity)
		}
	}
	for _, name := range aggregates {
		if !slices.Contains(subscribableAggregates, name) {
			return Subscription{}, fmt.Errorf("aggregate %q: %w", name, ErrUnknownTopic)
		}
		if !slices.Contains(sub.Aggregates, name) {
			sub.Aggregates = append(sub.Aggregates, name)
		}
	}
	// naming aggregates only makes sense if invalidations are delivered
	if len(sub.Aggregates) > 0 && len(sub.Entities) > 0 && !slices.Contains(sub.Entities, EntityTypeLedger) {
		sub.Entities = append(sub.Entities, EntityTypeLedger)
	}
	return sub, nil
}

// ParseSubscription reads comma separated entity and aggregate lists, as sent
// in the /ws query string
func ParseSubscription(entities, aggregates string) (Subscription, error) {
	return NewSubscription(splitList(entities), splitList(aggregates))
}

// Accepts reports whether the event falls within the subscription.
// Events about the subscription itself are always delivered.
func (s Subscription) Accepts(event Event) bool {
	if event.Entity == EntityTypeSubscription {
		return true
	}
	if len(s.Entities) > 0 && !slices.Contains(s.Entities, event.Entity) {
		return false
	}
	if event.Entity != EntityTypeLedger || len(s.Aggregates) == 0 {
		return true
	}

	var named []string
	switch p := event.Payload.(type) {
	case InvalidationPayload:
		named = p.Aggregates
	case *InvalidationPayload:
		named = p.Aggregates
	default:
		return true
	}
	for _, aggregate := range named {
		if slices.Contains(s.Aggregates, aggregate) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
