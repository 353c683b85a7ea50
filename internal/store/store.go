// Package store defines the subscription registry and its persistence.
package store

import (
	"errors"

	"bilidyn/internal/model"
)

// ErrDuplicate is returned by Add when the subscriber already has a
// subscription for the same owner.
var ErrDuplicate = errors.New("subscription already exists")

// ScopeOutcome classifies the result of a bulk scope removal.
type ScopeOutcome int

// Bulk removal outcomes.
const (
	ScopeNotFound ScopeOutcome = iota
	ScopeRemoved
	ScopeAmbiguous
)

// ScopeRemoval is the result of RemoveAllForScope. On ScopeRemoved, Removed
// holds the deleted subscriber key; on ScopeAmbiguous, Candidates lists
// every matching key and nothing was mutated.
type ScopeRemoval struct {
	Outcome    ScopeOutcome
	Removed    string
	Candidates []string
}

// Store is the single source of truth for the subscriber registry. All
// returned subscriptions are copies; mutations go through store methods,
// each of which persists the full registry before returning.
type Store interface {
	All() map[string][]model.Subscription
	ForSubscriber(key string) ([]model.Subscription, bool)
	Get(key string, ownerID int64) (*model.Subscription, bool)
	Add(key string, sub model.Subscription) error
	UpdateFilters(key string, ownerID int64, types, regex []string) (bool, error)
	RecordDynamic(key string, ownerID int64, dynID string) error
	SetLiveStatus(key string, ownerID int64, live bool) error
	Remove(key string, ownerID int64) (bool, error)
	RemoveAllForScope(scope string) (ScopeRemoval, error)
}
