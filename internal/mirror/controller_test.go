package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orarsync/internal/cache"
	"orarsync/internal/kv"
	"orarsync/internal/model"
)

var gridScope = model.Scope{AcademicYear: 1, Semester: "semester1", CycleType: model.CycleFullTime}

// spyFetcher counts calls and serves canned responses.
type spyFetcher struct {
	mu          sync.Mutex
	schedules   []model.Schedule
	assessments []model.AssessmentSchedule
	err         error
	calls       int

	// When set, ListSchedules blocks until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (f *spyFetcher) ListSchedules(ctx context.Context, sc model.Scope) ([]model.Schedule, error) {
	f.mu.Lock()
	f.calls++
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	return f.schedules, f.err
}

func (f *spyFetcher) ListAssessments(ctx context.Context, sc model.Scope) ([]model.AssessmentSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.assessments, f.err
}

func (f *spyFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func session(group, day, hour string, id int) model.Schedule {
	return model.Schedule{
		ID:           id,
		Day:          day,
		Hour:         hour,
		SessionType:  model.SessionCourse,
		Status:       model.StatusNormal,
		Group:        model.Group{ID: id, Code: group},
		AcademicYear: gridScope.AcademicYear,
		Semester:     gridScope.Semester,
		CycleType:    gridScope.CycleType,
	}
}

func newTestController(f Fetcher, online bool) (*Controller, *cache.Store) {
	caches := cache.NewStore(kv.NewMemory())
	ctrl := NewController(f, caches, Always(online))
	ctrl.SetScope(gridScope)
	return ctrl, caches
}

func TestRefreshFetchesAndWritesThrough(t *testing.T) {
	fetched := []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)}
	fetcher := &spyFetcher{schedules: fetched}
	ctrl, caches := newTestController(fetcher, true)

	ctrl.Refresh(context.Background(), true, true)

	snap := ctrl.Snapshot()
	assert.Equal(t, fetched, snap.Schedules)
	assert.Empty(t, snap.Notice)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
	assert.Equal(t, fetched, caches.LoadSchedules(gridScope))
	assert.Equal(t, 1, fetcher.callCount())
}

func TestRefreshOfflineServesCache(t *testing.T) {
	cached := []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)}
	fetcher := &spyFetcher{}
	ctrl, caches := newTestController(fetcher, false)
	caches.SaveSchedules(cached, gridScope)

	ctrl.Refresh(context.Background(), true, false)

	snap := ctrl.Snapshot()
	assert.Equal(t, cached, snap.Schedules)
	assert.Equal(t, NoticeOffline, snap.Notice)
	assert.Empty(t, snap.Error)
	assert.Zero(t, fetcher.callCount(), "offline refresh must not hit the network")
}

func TestRefreshOfflineNoCache(t *testing.T) {
	fetcher := &spyFetcher{}
	ctrl, _ := newTestController(fetcher, false)

	ctrl.Refresh(context.Background(), true, false)

	snap := ctrl.Snapshot()
	assert.Empty(t, snap.Schedules)
	assert.Equal(t, ErrNoDataNoConn, snap.Error)
	assert.Zero(t, fetcher.callCount())
}

func TestRefreshFailureFallsBackToStaleCache(t *testing.T) {
	cached := []model.Schedule{session("TI-221", "Marți", "9.45-11.15", 2)}
	fetcher := &spyFetcher{err: errors.New("backend down")}
	ctrl, caches := newTestController(fetcher, true)
	caches.SaveSchedules(cached, gridScope)

	ctrl.Refresh(context.Background(), false, false)

	snap := ctrl.Snapshot()
	assert.Equal(t, cached, snap.Schedules)
	assert.Equal(t, NoticeStaleCache, snap.Notice)
	// The stale copy stays in the cache untouched.
	assert.Equal(t, cached, caches.LoadSchedules(gridScope))
}

func TestRefreshFailureNoCacheSurfacesError(t *testing.T) {
	fetcher := &spyFetcher{err: errors.New("backend down")}
	ctrl, _ := newTestController(fetcher, true)

	ctrl.Refresh(context.Background(), false, false)

	snap := ctrl.Snapshot()
	assert.Empty(t, snap.Schedules)
	assert.Contains(t, snap.Error, "backend down")
}

func TestRefreshIncompleteScopeIsNoop(t *testing.T) {
	fetcher := &spyFetcher{}
	caches := cache.NewStore(kv.NewMemory())
	ctrl := NewController(fetcher, caches, Always(true))
	ctrl.SetScope(model.Scope{AcademicYear: 1})

	ctrl.Refresh(context.Background(), true, true)

	assert.Zero(t, fetcher.callCount())
}

func TestOverlappingRefreshesCollapse(t *testing.T) {
	fetcher := &spyFetcher{
		schedules: []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)},
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	ctrl, _ := newTestController(fetcher, true)

	done := make(chan struct{})
	go func() {
		ctrl.Refresh(context.Background(), false, false)
		close(done)
	}()

	select {
	case <-fetcher.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh never reached the fetcher")
	}

	// Second call sees the in-flight guard and returns immediately.
	ctrl.Refresh(context.Background(), false, false)

	close(fetcher.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh never finished")
	}

	assert.Equal(t, 1, fetcher.callCount())
}

func TestRefreshAssessmentPeriod(t *testing.T) {
	entries := []model.AssessmentSchedule{{
		ID:                1,
		Subject:           "Programare",
		GroupsComposition: "TI-221, TI-222",
		AcademicYear:      1,
		Semester:          "exams",
	}}
	fetcher := &spyFetcher{assessments: entries}
	caches := cache.NewStore(kv.NewMemory())
	ctrl := NewController(fetcher, caches, Always(true))
	sc := model.Scope{AcademicYear: 1, Semester: "exams", CycleType: model.CycleFullTime}
	ctrl.SetScope(sc)

	ctrl.Refresh(context.Background(), false, false)

	snap := ctrl.Snapshot()
	assert.Equal(t, entries, snap.Assessments)
	assert.Empty(t, snap.Schedules)
	assert.Equal(t, entries, caches.LoadAssessments(sc))
}

func TestUserGroupFiltersFetchedData(t *testing.T) {
	fetcher := &spyFetcher{schedules: []model.Schedule{
		session("TI-221", "Luni", "8.00-9.30", 1),
		session("TI-222", "Luni", "8.00-9.30", 2),
	}}
	ctrl, caches := newTestController(fetcher, true)
	ctrl.SetUserGroup("TI-221")

	ctrl.Refresh(context.Background(), false, false)

	snap := ctrl.Snapshot()
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, "TI-221", snap.Schedules[0].Group.Code)
	// Only the student's rows are written through.
	assert.Len(t, caches.LoadSchedules(gridScope), 1)
}

func TestSetUserGroupPrunesExistingCache(t *testing.T) {
	fetcher := &spyFetcher{}
	ctrl, caches := newTestController(fetcher, true)
	caches.SaveSchedules([]model.Schedule{
		session("TI-221", "Luni", "8.00-9.30", 1),
		session("TI-222", "Luni", "8.00-9.30", 2),
	}, gridScope)

	ctrl.SetUserGroup("TI-222")

	kept := caches.LoadSchedules(gridScope)
	require.Len(t, kept, 1)
	assert.Equal(t, "TI-222", kept[0].Group.Code)
}

func TestApplyLiveUpdateReplacesInScopeEntries(t *testing.T) {
	fetcher := &spyFetcher{}
	ctrl, caches := newTestController(fetcher, true)

	outOfScope := session("TI-221", "Joi", "11.30-13.00", 9)
	outOfScope.Semester = "semester2"
	pushed := []model.Schedule{
		session("TI-221", "Luni", "8.00-9.30", 1),
		outOfScope,
	}

	ctrl.ApplyLiveUpdate(context.Background(), pushed)

	snap := ctrl.Snapshot()
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, 1, snap.Schedules[0].ID)
	assert.Len(t, caches.LoadSchedules(gridScope), 1)
	assert.Zero(t, fetcher.callCount(), "a full push must not trigger a re-fetch")
}

func TestApplyLiveUpdateEmptySignalForcesRefetch(t *testing.T) {
	fetcher := &spyFetcher{schedules: []model.Schedule{session("TI-221", "Vineri", "15.15-16.45", 5)}}
	ctrl, _ := newTestController(fetcher, true)

	ctrl.ApplyLiveUpdate(context.Background(), nil)

	assert.Equal(t, 1, fetcher.callCount())
	snap := ctrl.Snapshot()
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, 5, snap.Schedules[0].ID)
}

func TestApplyLiveUpdateIgnoredDuringAssessmentPeriod(t *testing.T) {
	fetcher := &spyFetcher{}
	caches := cache.NewStore(kv.NewMemory())
	ctrl := NewController(fetcher, caches, Always(true))
	sc := model.Scope{AcademicYear: 1, Semester: "assessments1", CycleType: model.CycleFullTime}
	ctrl.SetScope(sc)

	ctrl.ApplyLiveUpdate(context.Background(), []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)})

	snap := ctrl.Snapshot()
	assert.Empty(t, snap.Schedules)
	assert.Empty(t, snap.Assessments)
}

func TestSetScopeResetsView(t *testing.T) {
	fetcher := &spyFetcher{schedules: []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)}}
	ctrl, _ := newTestController(fetcher, true)
	ctrl.Refresh(context.Background(), false, false)
	require.Len(t, ctrl.Snapshot().Schedules, 1)

	next := gridScope
	next.Semester = "semester2"
	ctrl.SetScope(next)

	snap := ctrl.Snapshot()
	assert.Empty(t, snap.Schedules)
	assert.Equal(t, next, ctrl.Scope())
}

func TestSnapshotIsACopy(t *testing.T) {
	fetcher := &spyFetcher{schedules: []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)}}
	ctrl, _ := newTestController(fetcher, true)
	ctrl.Refresh(context.Background(), false, false)

	snap := ctrl.Snapshot()
	snap.Schedules[0].Day = "Sâmbătă"

	assert.Equal(t, "Luni", ctrl.Snapshot().Schedules[0].Day)
}

func TestRunPollingSkipsWhileChannelHealthy(t *testing.T) {
	fetcher := &spyFetcher{schedules: []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)}}
	ctrl, _ := newTestController(fetcher, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.RunPolling(ctx, 10*time.Millisecond, func() bool { return true })
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, fetcher.callCount())
}

func TestRunPollingRefreshesWhileChannelDown(t *testing.T) {
	fetcher := &spyFetcher{schedules: []model.Schedule{session("TI-221", "Luni", "8.00-9.30", 1)}}
	ctrl, _ := newTestController(fetcher, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.RunPolling(ctx, 10*time.Millisecond, func() bool { return false })
		close(done)
	}()

	require.Eventually(t, func() bool { return fetcher.callCount() > 0 },
		2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Len(t, ctrl.Snapshot().Schedules, 1)
}
