// Package model defines the domain types used across the application.
package model

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// RecentDynamicCache is the size bound of the per-subscription dedup window.
// Upstream feeds reorder items near the head, so remembering only the single
// last id is not enough; reordering is local, so a small window suffices.
const RecentDynamicCache = 4

// Subscription tracks one (subscriber, owner) pair: which dynamics have
// already been announced, the owner's live status, and optional filters.
type Subscription struct {
	OwnerID     int64    `json:"uid"`
	Last        string   `json:"last"`
	IsLive      bool     `json:"is_live"`
	FilterTypes []string `json:"filter_types"`
	FilterRegex []string `json:"filter_regex"`
	RecentIDs   []string `json:"recent_ids"`
}

// RecordDynamic marks id as the most recently seen dynamic. An id already in
// the window is moved to the front rather than duplicated; the window is
// truncated to RecentDynamicCache entries. Empty ids are ignored.
func (s *Subscription) RecordDynamic(id string) {
	if id == "" {
		return
	}
	for i, v := range s.RecentIDs {
		if v == id {
			s.RecentIDs = append(s.RecentIDs[:i], s.RecentIDs[i+1:]...)
			break
		}
	}
	s.Last = id
	s.RecentIDs = append([]string{id}, s.RecentIDs...)
	s.EnsureCacheLimit()
}

// EnsureCacheLimit truncates RecentIDs to the cache bound.
func (s *Subscription) EnsureCacheLimit() {
	if len(s.RecentIDs) > RecentDynamicCache {
		s.RecentIDs = s.RecentIDs[:RecentDynamicCache]
	}
}

// IsKnown reports whether id has been recorded. The empty id is never known.
func (s *Subscription) IsKnown(id string) bool {
	if id == "" {
		return false
	}
	if id == s.Last {
		return true
	}
	for _, v := range s.RecentIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, preserving empty-not-nil slices so copies
// round-trip the persisted layout unchanged. Callers receive copies from
// the store and must write changes back through store methods.
func (s *Subscription) Clone() *Subscription {
	cp := *s
	cp.FilterTypes = slices.Clone(s.FilterTypes)
	cp.FilterRegex = slices.Clone(s.FilterRegex)
	cp.RecentIDs = slices.Clone(s.RecentIDs)
	return &cp
}

// Normalize replaces nil slices with empty ones so the persisted record
// round-trips empty filters as [] rather than null, and enforces the cache
// bound on records read from disk.
func (s *Subscription) Normalize() {
	if s.FilterTypes == nil {
		s.FilterTypes = []string{}
	}
	if s.FilterRegex == nil {
		s.FilterRegex = []string{}
	}
	if s.RecentIDs == nil {
		s.RecentIDs = []string{}
	}
	s.EnsureCacheLimit()
}

// UnmarshalJSON accepts both numeric and string "uid" values; files written
// by older versions stored the owner id as a string.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	var raw struct {
		OwnerID     json.RawMessage `json:"uid"`
		Last        string          `json:"last"`
		IsLive      bool            `json:"is_live"`
		FilterTypes []string        `json:"filter_types"`
		FilterRegex []string        `json:"filter_regex"`
		RecentIDs   []string        `json:"recent_ids"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.OwnerID = parseOwnerID(raw.OwnerID)
	s.Last = raw.Last
	s.IsLive = raw.IsLive
	s.FilterTypes = raw.FilterTypes
	s.FilterRegex = raw.FilterRegex
	s.RecentIDs = raw.RecentIDs
	s.Normalize()
	return nil
}

func parseOwnerID(raw json.RawMessage) int64 {
	v := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
