package service

import (
	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// ChangeNotifier runs after every successful ledger write. It evicts the
// cached aggregates the write touched and tells the user's connected clients
// what changed. A nil *ChangeNotifier is valid and does nothing.
type ChangeNotifier struct {
	invalidator    *cache.Invalidator
	eventPublisher websocket.EventPublisher
}

// NewChangeNotifier creates a ChangeNotifier. invalidator may be nil when caching is disabled.
func NewChangeNotifier(invalidator *cache.Invalidator) *ChangeNotifier {
	return &ChangeNotifier{invalidator: invalidator}
}

// SetEventPublisher sets the event publisher for real-time updates
func (n *ChangeNotifier) SetEventPublisher(publisher websocket.EventPublisher) {
	n.eventPublisher = publisher
}

// Changed applies the change to the cache and publishes a ledger.invalidated
// event listing the affected aggregates
func (n *ChangeNotifier) Changed(change cache.Change) {
	if n == nil {
		return
	}

	var evicted []cache.Key
	if n.invalidator != nil {
		evicted = n.invalidator.Apply(change)
	}

	affected := cache.Affected(change)
	log.Debug().
		Int32("user_id", change.UserID).
		Str("mutation", string(change.Mutation)).
		Int("evicted", len(evicted)).
		Msg("Ledger change applied")

	if len(affected) == 0 {
		return
	}

	payload := websocket.InvalidationPayload{
		Cause:      string(change.Mutation),
		Aggregates: make([]string, len(affected)),
		AccountIDs: change.AccountIDs,
		CardIDs:    change.CardIDs,
	}
	for i, a := range affected {
		payload.Aggregates[i] = string(a)
	}
	for _, d := range change.Dates {
		label := d.Format("2006-01")
		if !containsString(payload.Months, label) {
			payload.Months = append(payload.Months, label)
		}
	}
	n.publish(change.UserID, websocket.LedgerInvalidated(payload))
}

// Entity publishes an entity lifecycle event
func (n *ChangeNotifier) Entity(userID int32, event websocket.Event) {
	if n == nil {
		return
	}
	n.publish(userID, event)
}

func (n *ChangeNotifier) publish(userID int32, event websocket.Event) {
	if n.eventPublisher != nil {
		n.eventPublisher.Publish(userID, event)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// transactionChange describes a transaction write touching the given versions
// of the row, e.g. before and after an update
func transactionChange(userID int32, versions ...*domain.Transaction) cache.Change {
	change := cache.Change{Mutation: cache.MutationTransaction, UserID: userID, Scoped: true}
	for _, t := range versions {
		if t == nil {
			continue
		}
		change.AccountIDs = appendUnique(change.AccountIDs, t.AccountID)
		if t.CardID != nil {
			change.CardIDs = appendUnique(change.CardIDs, *t.CardID)
		}
		change.Dates = append(change.Dates, t.Date)
	}
	return change
}

func appendUnique(ids []int32, id int32) []int32 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
