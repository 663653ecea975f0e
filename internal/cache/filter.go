package cache

import (
	"encoding/json"
	"log"
	"strings"

	"orarsync/internal/kv"
	"orarsync/internal/model"
)

// FilterSchedulesByGroup prunes every cached schedule key down to the
// entries belonging to one group. Keys left empty by the pruning are
// deleted together with their timestamps. Invoked once a student's group
// becomes known, so a cache shared across accounts on one device never
// leaks another group's data.
func (s *Store) FilterSchedulesByGroup(groupCode string) {
	if groupCode == "" {
		return
	}
	filterKeys(s.kv, schedulePrefix, scheduleStampPrefix, func(e model.Schedule) bool {
		return e.Group.Code == groupCode
	})
}

// FilterAssessmentsByGroup prunes every cached assessment key down to the
// entries whose groups composition includes the given group.
func (s *Store) FilterAssessmentsByGroup(groupCode string) {
	if groupCode == "" {
		return
	}
	filterKeys(s.kv, assessmentPrefix, assessStampPrefix, func(e model.AssessmentSchedule) bool {
		return e.HasGroup(groupCode)
	})
}

func filterKeys[T any](store kv.Store, dataPrefix, stampPrefix string, keep func(T) bool) {
	keys, err := store.Keys(dataPrefix)
	if err != nil {
		log.Printf("cache: list %q keys failed: %v", dataPrefix, err)
		return
	}
	for _, dataKey := range keys {
		stampKey := stampPrefix + strings.TrimPrefix(dataKey, dataPrefix)

		raw, err := store.Get(dataKey)
		if err != nil {
			log.Printf("cache: read %s failed: %v", dataKey, err)
			continue
		}
		var entries []T
		if err := json.Unmarshal(raw, &entries); err != nil {
			log.Printf("cache: %s corrupt, dropping: %v", dataKey, err)
			deletePair(store, dataKey, stampKey)
			continue
		}

		kept := entries[:0]
		for _, e := range entries {
			if keep(e) {
				kept = append(kept, e)
			}
		}

		if len(kept) == 0 {
			// Nothing left for this scope; no point keeping an empty
			// placeholder around.
			deletePair(store, dataKey, stampKey)
			continue
		}
		if len(kept) == len(entries) {
			continue
		}
		out, err := json.Marshal(kept)
		if err != nil {
			log.Printf("cache: encode %s failed: %v", dataKey, err)
			continue
		}
		if err := store.Set(dataKey, out); err != nil {
			log.Printf("cache: rewrite %s failed: %v", dataKey, err)
		}
	}
}
