package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/adrg/xdg"

	"bilidyn/internal/model"
)

// LegacyPath is where versions before the data-dir move kept their registry,
// relative to the working directory. It is migrated once, non-destructively.
const LegacyPath = "data/bilidyn.json"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// document is the persisted registry layout.
type document struct {
	Subs map[string][]model.Subscription `json:"bili_sub_list"`
}

// File implements Store backed by a single JSON document. Every mutation
// rewrites the whole document via a temp-file rename, so external readers
// never observe a half-written registry.
type File struct {
	mu   sync.Mutex
	path string
	subs map[string][]model.Subscription
	log  *slog.Logger
}

// DefaultPath returns the registry location inside the platform-standard
// data directory, creating parent directories as needed.
func DefaultPath() (string, error) {
	return xdg.DataFile("bilidyn/subscriptions.json")
}

// Open loads the registry at path, migrating the legacy file and
// initializing an empty registry on first run.
func Open(path string, log *slog.Logger) (*File, error) {
	f := &File{path: path, log: log}

	if err := f.migrateLegacy(LegacyPath); err != nil {
		return nil, err
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// migrateLegacy copies the legacy registry to the standard path if the
// legacy file exists and the standard one does not. The legacy file is
// left in place.
func (f *File) migrateLegacy(legacy string) error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	}
	data, err := os.ReadFile(legacy)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read legacy registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("migrate legacy registry: %w", err)
	}
	f.log.Info("migrated legacy registry", "from", legacy, "to", f.path)
	return nil
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		f.log.Info("registry not found, creating", "path", f.path)
		f.subs = map[string][]model.Subscription{}
		if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		return f.save()
	}
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}

	// Files written by older versions may carry a UTF-8 BOM.
	data = bytes.TrimPrefix(data, utf8BOM)

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse registry: %w", err)
	}
	if doc.Subs == nil {
		doc.Subs = map[string][]model.Subscription{}
	}
	for key := range doc.Subs {
		for i := range doc.Subs[key] {
			doc.Subs[key][i].Normalize()
		}
	}
	f.subs = doc.Subs
	return nil
}

// save writes the full registry atomically. Callers hold f.mu.
func (f *File) save() error {
	data, err := json.MarshalIndent(document{Subs: f.subs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".subscriptions-*.json")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// All returns a deep copy of the whole registry.
func (f *File) All() map[string][]model.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string][]model.Subscription, len(f.subs))
	for key, subs := range f.subs {
		out[key] = copySubs(subs)
	}
	return out
}

// ForSubscriber returns copies of one subscriber's subscriptions.
func (f *File) ForSubscriber(key string) ([]model.Subscription, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subs[key]
	if !ok {
		return nil, false
	}
	return copySubs(subs), true
}

// Get returns a copy of one subscription.
func (f *File) Get(key string, ownerID int64) (*model.Subscription, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.locate(key, ownerID)
	if idx < 0 {
		return nil, false
	}
	return f.subs[key][idx].Clone(), true
}

// Add appends a subscription for the subscriber. Adding an owner the
// subscriber already follows returns ErrDuplicate and mutates nothing.
func (f *File) Add(key string, sub model.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.locate(key, sub.OwnerID) >= 0 {
		return fmt.Errorf("owner %d for %s: %w", sub.OwnerID, key, ErrDuplicate)
	}
	sub.Normalize()
	f.subs[key] = append(f.subs[key], sub)
	if err := f.save(); err != nil {
		f.subs[key] = f.subs[key][:len(f.subs[key])-1]
		if len(f.subs[key]) == 0 {
			delete(f.subs, key)
		}
		return err
	}
	return nil
}

// UpdateFilters replaces the filter fields of an existing subscription.
// Returns false without persisting if the subscription is absent.
func (f *File) UpdateFilters(key string, ownerID int64, types, regex []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.locate(key, ownerID)
	if idx < 0 {
		return false, nil
	}
	sub := &f.subs[key][idx]
	prevTypes, prevRegex := sub.FilterTypes, sub.FilterRegex
	sub.FilterTypes = append([]string{}, types...)
	sub.FilterRegex = append([]string{}, regex...)
	if err := f.save(); err != nil {
		sub.FilterTypes, sub.FilterRegex = prevTypes, prevRegex
		return true, err
	}
	return true, nil
}

// RecordDynamic applies the dedup-cache update for one seen dynamic.
// A missing subscription is a no-op.
func (f *File) RecordDynamic(key string, ownerID int64, dynID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.locate(key, ownerID)
	if idx < 0 {
		return nil
	}
	prev := f.subs[key][idx].Clone()
	f.subs[key][idx].RecordDynamic(dynID)
	if err := f.save(); err != nil {
		f.subs[key][idx] = *prev
		return err
	}
	return nil
}

// SetLiveStatus stores the owner's live flag. A missing subscription is a
// no-op.
func (f *File) SetLiveStatus(key string, ownerID int64, live bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.locate(key, ownerID)
	if idx < 0 {
		return nil
	}
	prev := f.subs[key][idx].IsLive
	f.subs[key][idx].IsLive = live
	if err := f.save(); err != nil {
		f.subs[key][idx].IsLive = prev
		return err
	}
	return nil
}

// Remove deletes one subscription, dropping the subscriber key entirely
// when its list becomes empty. Reports whether a removal occurred.
func (f *File) Remove(key string, ownerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.locate(key, ownerID)
	if idx < 0 {
		return false, nil
	}
	subs := f.subs[key]
	next := make([]model.Subscription, 0, len(subs)-1)
	next = append(next, subs[:idx]...)
	next = append(next, subs[idx+1:]...)
	if len(next) == 0 {
		delete(f.subs, key)
	} else {
		f.subs[key] = next
	}
	if err := f.save(); err != nil {
		f.subs[key] = subs
		return true, err
	}
	return true, nil
}

// RemoveAllForScope deletes every subscription of the single subscriber
// whose scope segment (or verbatim key) matches scope. With several
// matches nothing is mutated and all candidates are returned.
func (f *File) RemoveAllForScope(scope string) (ScopeRemoval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var candidates []string
	for key := range f.subs {
		parsed, err := model.ParseSubscriberKey(key)
		if err != nil {
			// Keys from hand-edited files may not parse; they are
			// still removable by exact match.
			if key == scope {
				candidates = append(candidates, key)
			}
			continue
		}
		if parsed.MatchesScope(scope) {
			candidates = append(candidates, key)
		}
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return ScopeRemoval{Outcome: ScopeNotFound}, nil
	case 1:
		removed := f.subs[candidates[0]]
		delete(f.subs, candidates[0])
		if err := f.save(); err != nil {
			f.subs[candidates[0]] = removed
			return ScopeRemoval{}, err
		}
		return ScopeRemoval{Outcome: ScopeRemoved, Removed: candidates[0]}, nil
	default:
		return ScopeRemoval{Outcome: ScopeAmbiguous, Candidates: candidates}, nil
	}
}

// locate returns the index of ownerID in key's list, or -1. Callers hold
// f.mu.
func (f *File) locate(key string, ownerID int64) int {
	for i := range f.subs[key] {
		if f.subs[key][i].OwnerID == ownerID {
			return i
		}
	}
	return -1
}

func copySubs(subs []model.Subscription) []model.Subscription {
	out := make([]model.Subscription, len(subs))
	for i := range subs {
		out[i] = *subs[i].Clone()
	}
	return out
}
