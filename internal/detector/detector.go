// Package detector decides which dynamics of a poll batch are new for a
// subscription and applies the subscription's filters.
package detector

import (
	"fmt"
	"log/slog"

	"bilidyn/internal/model"
)

// Recorder is the subset of the store the detector mutates.
type Recorder interface {
	RecordDynamic(key string, ownerID int64, dynID string) error
	SetLiveStatus(key string, ownerID int64, live bool) error
}

// EmitFunc delivers one new dynamic. A non-nil error leaves the item
// unrecorded so it is evaluated again on the next poll.
type EmitFunc func(item *model.Dynamic) error

// Detector computes new items against a subscription's dedup window.
type Detector struct {
	store Recorder
	log   *slog.Logger
}

// New creates a Detector writing dedup updates through store.
func New(store Recorder, log *slog.Logger) *Detector {
	return &Detector{store: store, log: log}
}

// Process walks a batch for one subscription and emits every item the
// subscription has not seen, in batch order. Each accepted item is
// recorded into a working copy of the dedup window before the next item is
// evaluated, so an id surfacing twice in one batch is emitted once. Items
// suppressed by filters are persisted as seen without being emitted; items
// whose emit fails are neither, and a failed emit does not stop the batch.
// Returns the number of items emitted.
func (d *Detector) Process(key string, sub *model.Subscription, batch []*model.Dynamic, emit EmitFunc) (int, error) {
	work := sub.Clone()
	emitted := 0

	for _, item := range batch {
		if work.IsKnown(item.ID) {
			continue
		}
		work.RecordDynamic(item.ID)

		if !Passes(sub, item) {
			d.log.Debug("dynamic suppressed by filter",
				"subscriber", key, "owner", sub.OwnerID, "dynamic", item.ID, "tag", item.FilterTag())
			if err := d.store.RecordDynamic(key, sub.OwnerID, item.ID); err != nil {
				return emitted, fmt.Errorf("record suppressed dynamic %s: %w", item.ID, err)
			}
			continue
		}

		if err := emit(item); err != nil {
			d.log.Error("emit dynamic",
				"subscriber", key, "owner", sub.OwnerID, "dynamic", item.ID, "error", err)
			continue
		}
		emitted++

		if err := d.store.RecordDynamic(key, sub.OwnerID, item.ID); err != nil {
			return emitted, fmt.Errorf("record dynamic %s: %w", item.ID, err)
		}
	}
	return emitted, nil
}

// LiveTransition compares the stored live flag with a freshly fetched one,
// persisting the new value when it changed. Reports whether a transition
// occurred. Live status is independent of the dedup window.
func (d *Detector) LiveTransition(key string, sub *model.Subscription, live bool) (bool, error) {
	if sub.IsLive == live {
		return false, nil
	}
	if err := d.store.SetLiveStatus(key, sub.OwnerID, live); err != nil {
		return false, fmt.Errorf("persist live status: %w", err)
	}
	return true, nil
}
