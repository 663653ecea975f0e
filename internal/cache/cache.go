// Package cache persists fetched schedule and assessment data keyed by
// scheduling context, so views render instantly and survive the backend
// being unreachable. Storage faults are absorbed here: every operation
// logs and degrades to "no cache" instead of failing the caller.
package cache

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"orarsync/internal/kv"
	"orarsync/internal/model"
)

const (
	schedulePrefix      = "scheduleCache_"
	scheduleStampPrefix = "scheduleCacheTimestamp_"
	assessmentPrefix    = "assessmentCache_"
	assessStampPrefix   = "assessmentCacheTimestamp_"
	groupsOrderKey      = "scheduleGroupsOrder"

	// Keys from before caches were scoped per (year, semester, cycle).
	// Only ever removed, never written.
	legacyScheduleKey = "scheduleCache"
	legacyStampKey    = "scheduleCacheTimestamp"
)

// Store reads and writes scoped cache entries on a kv backend.
type Store struct {
	kv kv.Store
}

// NewStore wraps a kv backend.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// scopeKey derives the storage key for a scope under the given prefix.
// A missing cycle type is spelled out as "null" to keep keys unambiguous.
func scopeKey(prefix string, sc model.Scope) string {
	cycle := sc.CycleType
	if cycle == "" {
		cycle = "null"
	}
	return prefix + strconv.Itoa(sc.AcademicYear) + "_" + sc.Semester + "_" + cycle
}

// SaveSchedules overwrites the cached schedule set for a scope and records
// the write time alongside it.
func (s *Store) SaveSchedules(entries []model.Schedule, sc model.Scope) {
	if !sc.Complete() {
		return
	}
	save(s.kv, scopeKey(schedulePrefix, sc), scopeKey(scheduleStampPrefix, sc), entries)
}

// LoadSchedules returns the cached schedule set for a scope, or nil when
// nothing usable is stored or the scope is incomplete.
func (s *Store) LoadSchedules(sc model.Scope) []model.Schedule {
	if !sc.Complete() {
		return nil
	}
	return load[model.Schedule](s.kv, scopeKey(schedulePrefix, sc))
}

// ClearSchedules removes one scope's schedule data and timestamp.
func (s *Store) ClearSchedules(sc model.Scope) {
	deletePair(s.kv, scopeKey(schedulePrefix, sc), scopeKey(scheduleStampPrefix, sc))
}

// SaveAssessments overwrites the cached assessment set for a scope.
func (s *Store) SaveAssessments(entries []model.AssessmentSchedule, sc model.Scope) {
	if !sc.Complete() {
		return
	}
	save(s.kv, scopeKey(assessmentPrefix, sc), scopeKey(assessStampPrefix, sc), entries)
}

// LoadAssessments returns the cached assessment set for a scope, or nil.
func (s *Store) LoadAssessments(sc model.Scope) []model.AssessmentSchedule {
	if !sc.Complete() {
		return nil
	}
	return load[model.AssessmentSchedule](s.kv, scopeKey(assessmentPrefix, sc))
}

// ClearAssessments removes one scope's assessment data and timestamp.
func (s *Store) ClearAssessments(sc model.Scope) {
	deletePair(s.kv, scopeKey(assessmentPrefix, sc), scopeKey(assessStampPrefix, sc))
}

// ClearAll removes every cache entry this store ever writes, plus the
// legacy unscoped keys.
func (s *Store) ClearAll() {
	for _, prefix := range []string{schedulePrefix, scheduleStampPrefix, assessmentPrefix, assessStampPrefix} {
		keys, err := s.kv.Keys(prefix)
		if err != nil {
			log.Printf("cache: list %q keys failed: %v", prefix, err)
			continue
		}
		for _, k := range keys {
			if err := s.kv.Delete(k); err != nil {
				log.Printf("cache: delete %s failed: %v", k, err)
			}
		}
	}
	deletePair(s.kv, legacyScheduleKey, legacyStampKey)
}

// SaveGroupsOrder records the admin-defined display order of group ids.
func (s *Store) SaveGroupsOrder(ids []int) {
	raw, err := json.Marshal(ids)
	if err != nil {
		log.Printf("cache: encode groups order failed: %v", err)
		return
	}
	if err := s.kv.Set(groupsOrderKey, raw); err != nil {
		log.Printf("cache: save groups order failed: %v", err)
	}
}

// LoadGroupsOrder returns the stored display order, or nil when unset or
// unreadable.
func (s *Store) LoadGroupsOrder() []int {
	raw, err := s.kv.Get(groupsOrderKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("cache: read groups order failed: %v", err)
		}
		return nil
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Printf("cache: groups order corrupt, ignoring: %v", err)
		return nil
	}
	return ids
}

func save[T any](store kv.Store, dataKey, stampKey string, entries []T) {
	raw, err := json.Marshal(entries)
	if err != nil {
		log.Printf("cache: encode %s failed: %v", dataKey, err)
		return
	}
	if err := store.Set(dataKey, raw); err != nil {
		log.Printf("cache: save %s failed: %v", dataKey, err)
		return
	}
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := store.Set(stampKey, []byte(stamp)); err != nil {
		log.Printf("cache: save %s failed: %v", stampKey, err)
	}
}

func load[T any](store kv.Store, dataKey string) []T {
	raw, err := store.Get(dataKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("cache: read %s failed: %v", dataKey, err)
		}
		return nil
	}
	var entries []T
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Corrupt data is treated as absent, never surfaced.
		log.Printf("cache: %s corrupt, ignoring: %v", dataKey, err)
		return nil
	}
	return entries
}

func deletePair(store kv.Store, dataKey, stampKey string) {
	if err := store.Delete(dataKey); err != nil {
		log.Printf("cache: delete %s failed: %v", dataKey, err)
	}
	if err := store.Delete(stampKey); err != nil {
		log.Printf("cache: delete %s failed: %v", stampKey, err)
	}
}
