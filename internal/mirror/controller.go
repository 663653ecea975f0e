// Package mirror produces a consistent view of one scheduling scope,
// preferring fresh backend data but tolerating connectivity loss: cache
// first for instant rendering, network refresh with write-through, cache
// fallback with an explicit staleness notice when the network fails.
package mirror

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"orarsync/internal/cache"
	"orarsync/internal/model"
)

// User-facing notices, verbatim from the portal.
const (
	NoticeOffline    = "Mod offline."
	NoticeStaleCache = "Nu există conexiune la server. Se afișează datele din cache (posibil vechi)."
	ErrNoDataNoConn  = "Nu există conexiune la internet și nu există date în cache."
)

// Fetcher is the slice of the API client the controller needs.
type Fetcher interface {
	ListSchedules(ctx context.Context, sc model.Scope) ([]model.Schedule, error)
	ListAssessments(ctx context.Context, sc model.Scope) ([]model.AssessmentSchedule, error)
}

// Prober reports whether the backend is reachable, the daemon's analog of
// the browser connectivity signal. When it says no, refreshes never touch
// the network.
type Prober interface {
	Online() bool
}

// Snapshot is the rendered state served to consumers.
type Snapshot struct {
	Scope       model.Scope                `json:"-"`
	Schedules   []model.Schedule           `json:"schedules"`
	Assessments []model.AssessmentSchedule `json:"assessments,omitempty"`
	Notice      string                     `json:"notice,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Loading     bool                       `json:"loading"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// Controller owns the fetch state for one scope subscription. The
// in-flight guard is an instance field, so independent controllers never
// share it.
type Controller struct {
	fetcher Fetcher
	cache   *cache.Store
	prober  Prober

	inFlight atomic.Bool

	mu        sync.Mutex
	scope     model.Scope
	userGroup string
	view      Snapshot
}

// NewController wires a controller over a fetcher, a cache store, and a
// connectivity probe.
func NewController(f Fetcher, c *cache.Store, p Prober) *Controller {
	return &Controller{fetcher: f, cache: c, prober: p}
}

// SetUserGroup records the authenticated student's group and immediately
// prunes every cached scope down to it, so a cache shared across accounts
// on one device never shows another group's entries. Call it as soon as
// the group is known, and never with a guessed value.
func (c *Controller) SetUserGroup(code string) {
	if code == "" {
		return
	}
	c.mu.Lock()
	c.userGroup = code
	c.mu.Unlock()
	c.cache.FilterSchedulesByGroup(code)
	c.cache.FilterAssessmentsByGroup(code)
}

// SetScope switches the controller to a new (year, semester, cycle)
// selection and resets the rendered state, so stale entries from the
// previous selection never flash up.
func (c *Controller) SetScope(sc model.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope == sc {
		return
	}
	c.scope = sc
	c.view = Snapshot{Scope: sc}
}

// Scope returns the active selection.
func (c *Controller) Scope() model.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Snapshot returns a copy of the rendered state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.view
	view.Schedules = append([]model.Schedule(nil), c.view.Schedules...)
	view.Assessments = append([]model.AssessmentSchedule(nil), c.view.Assessments...)
	return view
}

// Refresh runs one reconciliation pass for the active scope. useCache
// renders cached data before the network round-trip; showLoading drives
// the snapshot's loading flag. Overlapping calls collapse to one: if a
// refresh is already in flight the call returns immediately.
func (c *Controller) Refresh(ctx context.Context, useCache, showLoading bool) {
	c.mu.Lock()
	sc := c.scope
	c.mu.Unlock()
	if !sc.Complete() {
		return
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		log.Printf("mirror: refresh already in flight, skipping")
		fetchesTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer c.inFlight.Store(false)

	if showLoading {
		c.setLoading(true)
		defer c.setLoading(false)
	}

	if sc.IsAssessmentPeriod() {
		c.refreshAssessments(ctx, sc, useCache)
	} else {
		c.refreshSchedules(ctx, sc, useCache)
	}
}

func (c *Controller) refreshSchedules(ctx context.Context, sc model.Scope, useCache bool) {
	rendered := false
	if useCache {
		if cached := c.cache.LoadSchedules(sc); len(cached) > 0 {
			c.setSchedules(sc, c.filterSchedules(cached))
			cacheHitsTotal.Inc()
			rendered = true
		}
	}

	if !c.prober.Online() {
		fetchesTotal.WithLabelValues("offline").Inc()
		if cached := c.cache.LoadSchedules(sc); len(cached) > 0 {
			if !rendered {
				c.setSchedules(sc, c.filterSchedules(cached))
			}
			c.setNotice(NoticeOffline)
		} else {
			c.setError(ErrNoDataNoConn)
		}
		return
	}

	data, err := c.fetcher.ListSchedules(ctx, sc)
	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		log.Printf("mirror: schedule fetch failed: %v", err)
		if cached := c.cache.LoadSchedules(sc); len(cached) > 0 {
			if !rendered {
				c.setSchedules(sc, c.filterSchedules(cached))
			}
			c.setNotice(NoticeStaleCache)
		} else {
			c.setError(err.Error())
		}
		return
	}

	fetchesTotal.WithLabelValues("success").Inc()
	filtered := c.filterSchedules(data)
	c.setSchedules(sc, filtered)
	// Write-through under the scope captured at fetch start: a refresh
	// racing a scope change can only land under its own (old) key.
	c.cache.SaveSchedules(filtered, sc)
}

func (c *Controller) refreshAssessments(ctx context.Context, sc model.Scope, useCache bool) {
	rendered := false
	if useCache {
		if cached := c.cache.LoadAssessments(sc); len(cached) > 0 {
			c.setAssessments(sc, c.filterAssessments(cached))
			cacheHitsTotal.Inc()
			rendered = true
		}
	}

	if !c.prober.Online() {
		fetchesTotal.WithLabelValues("offline").Inc()
		if cached := c.cache.LoadAssessments(sc); len(cached) > 0 {
			if !rendered {
				c.setAssessments(sc, c.filterAssessments(cached))
			}
			c.setNotice(NoticeOffline)
		} else {
			c.setError(ErrNoDataNoConn)
		}
		return
	}

	data, err := c.fetcher.ListAssessments(ctx, sc)
	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		log.Printf("mirror: assessment fetch failed: %v", err)
		if cached := c.cache.LoadAssessments(sc); len(cached) > 0 {
			if !rendered {
				c.setAssessments(sc, c.filterAssessments(cached))
			}
			c.setNotice(NoticeStaleCache)
		} else {
			c.setError(err.Error())
		}
		return
	}

	fetchesTotal.WithLabelValues("success").Inc()
	filtered := c.filterAssessments(data)
	c.setAssessments(sc, filtered)
	c.cache.SaveAssessments(filtered, sc)
}

// ApplyLiveUpdate reconciles a live-channel message against the scope the
// controller holds right now. A non-empty set replaces state directly; an
// empty set forces a network re-fetch since the change itself was not
// pushed.
func (c *Controller) ApplyLiveUpdate(ctx context.Context, pushed []model.Schedule) {
	c.mu.Lock()
	sc := c.scope
	c.mu.Unlock()
	if !sc.Complete() {
		return
	}

	if len(pushed) == 0 {
		liveUpdatesTotal.WithLabelValues("signal").Inc()
		c.Refresh(ctx, false, false)
		return
	}

	liveUpdatesTotal.WithLabelValues("refresh_all").Inc()
	if sc.IsAssessmentPeriod() {
		// Pushes carry weekly-grid sessions only.
		return
	}
	inScope := pushed[:0:0]
	for _, e := range pushed {
		if sc.Matches(e) {
			inScope = append(inScope, e)
		}
	}
	filtered := c.filterSchedules(inScope)
	c.setSchedules(sc, filtered)
	c.cache.SaveSchedules(filtered, sc)
}

// RunPolling re-fetches on a fixed interval while the live channel is
// down. It is the degraded-mode safety net, not the primary update path:
// it stays quiet whenever connected() reports a healthy channel, and it
// shares the in-flight guard with every other refresh trigger.
func (c *Controller) RunPolling(ctx context.Context, interval time.Duration, connected func() bool) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.prober.Online() {
				continue
			}
			if connected != nil && connected() {
				continue
			}
			if c.inFlight.Load() {
				continue
			}
			log.Printf("mirror: polling fallback, live channel down")
			pollFallbacksTotal.Inc()
			c.Refresh(ctx, false, false)
		}
	}
}

// filterSchedules narrows entries to the authenticated student's group.
// Admin sessions have no group and see everything.
func (c *Controller) filterSchedules(entries []model.Schedule) []model.Schedule {
	c.mu.Lock()
	group := c.userGroup
	c.mu.Unlock()
	if group == "" {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.Group.Code == group {
			out = append(out, e)
		}
	}
	return out
}

// filterAssessments narrows entries to those whose groups composition
// contains the student's group, rewriting the composition to just that
// group for display.
func (c *Controller) filterAssessments(entries []model.AssessmentSchedule) []model.AssessmentSchedule {
	c.mu.Lock()
	group := c.userGroup
	c.mu.Unlock()
	if group == "" {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.HasGroup(group) {
			e.GroupsComposition = group
			out = append(out, e)
		}
	}
	return out
}

func (c *Controller) setSchedules(sc model.Scope, entries []model.Schedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Scope = sc
	c.view.Schedules = entries
	c.view.Assessments = nil
	c.view.Notice = ""
	c.view.Error = ""
	c.view.UpdatedAt = time.Now()
}

func (c *Controller) setAssessments(sc model.Scope, entries []model.AssessmentSchedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Scope = sc
	c.view.Assessments = entries
	c.view.Schedules = nil
	c.view.Notice = ""
	c.view.Error = ""
	c.view.UpdatedAt = time.Now()
}

func (c *Controller) setNotice(notice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Notice = notice
	c.view.Error = ""
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Error = msg
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Loading = v
}
