package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewtime/shiftclock/internal/geo"
	"github.com/crewtime/shiftclock/internal/store"
)

// countingProvider returns a distinct point per capture, so tests can
// tell how many captures a transition performed.
type countingProvider struct {
	calls int
}

func (p *countingProvider) Capture(context.Context) *store.GeoPoint {
	p.calls++
	return &store.GeoPoint{Lat: float64(p.calls), Lng: float64(p.calls)}
}

type fixture struct {
	clock      *Clock
	store      *store.Store
	employeeID int64
	projectID  int64
	at         *time.Time
}

func newFixture(t *testing.T, g geo.Provider) *fixture {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e, err := s.CreateEmployee("Ada Lovelace", "worker")
	require.NoError(t, err)
	p, err := s.CreateProject("Site A", "1 Main St")
	require.NoError(t, err)

	at := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	c := NewClock(s, g)
	c.now = func() time.Time { return at }

	return &fixture{clock: c, store: s, employeeID: e.ID, projectID: p.ID, at: &at}
}

func (f *fixture) advance(d time.Duration) {
	*f.at = f.at.Add(d)
}

func TestStartCreatesOpenShift(t *testing.T) {
	f := newFixture(t, geo.Static{Point: store.GeoPoint{Lat: 52.52, Lng: 13.405}})
	t0 := *f.at

	sh, err := f.clock.Start(context.Background(), f.employeeID, f.projectID, "laying bricks")
	require.NoError(t, err)
	require.NotNil(t, sh)

	assert.True(t, sh.Open())
	assert.True(t, sh.StartTS.Equal(t0))
	assert.Empty(t, sh.Breaks)
	assert.Equal(t, "laying bricks", sh.Notes)
	require.NotNil(t, sh.StartGeo)
	assert.Equal(t, 52.52, sh.StartGeo.Lat)
	assert.Equal(t, StateWorking, StateOf(sh))

	shifts, err := f.store.ListShifts(store.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, shifts, 1)
}

func TestStartIsNoOpWhileShiftOpen(t *testing.T) {
	f := newFixture(t, geo.Unavailable{})

	first, err := f.clock.Start(context.Background(), f.employeeID, f.projectID, "")
	require.NoError(t, err)

	f.advance(time.Hour)
	second, err := f.clock.Start(context.Background(), f.employeeID, f.projectID, "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "duplicate start must return the existing shift")
	shifts, err := f.store.ListShifts(store.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, shifts, 1, "duplicate start must not create a second shift")
}

func TestBreakAndFinishAreNoOpsWhenIdle(t *testing.T) {
	f := newFixture(t, geo.Unavailable{})

	sh, err := f.clock.ToggleBreak(context.Background(), f.employeeID)
	require.NoError(t, err)
	assert.Nil(t, sh)

	sh, err = f.clock.Finish(context.Background(), f.employeeID)
	require.NoError(t, err)
	assert.Nil(t, sh)

	shifts, err := f.store.ListShifts(store.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, shifts, "no-op transitions must not mutate the store")
}

func TestBreakToggleThenFinish(t *testing.T) {
	f := newFixture(t, geo.Unavailable{})
	ctx := context.Background()
	t0 := *f.at

	_, err := f.clock.Start(ctx, f.employeeID, f.projectID, "")
	require.NoError(t, err)

	f.advance(time.Hour) // T1
	t1 := *f.at
	sh, err := f.clock.ToggleBreak(ctx, f.employeeID)
	require.NoError(t, err)
	require.Len(t, sh.Breaks, 1)
	assert.True(t, sh.Breaks[0].StartTS.Equal(t1))
	assert.True(t, sh.Breaks[0].Open())
	assert.Equal(t, StateOnBreak, StateOf(sh))

	f.advance(30 * time.Minute) // T2
	t2 := *f.at
	sh, err = f.clock.ToggleBreak(ctx, f.employeeID)
	require.NoError(t, err)
	require.Len(t, sh.Breaks, 1)
	require.NotNil(t, sh.Breaks[0].EndTS)
	assert.True(t, sh.Breaks[0].EndTS.Equal(t2))
	assert.Equal(t, StateWorking, StateOf(sh))

	f.advance(time.Hour) // T3
	t3 := *f.at
	sh, err = f.clock.Finish(ctx, f.employeeID)
	require.NoError(t, err)
	require.NotNil(t, sh.FinishTS)
	assert.True(t, sh.FinishTS.Equal(t3))
	assert.True(t, sh.StartTS.Equal(t0))
	require.Len(t, sh.Breaks, 1)
	assert.True(t, sh.Breaks[0].EndTS.Equal(t2), "closed break must be untouched by finish")
	assert.Equal(t, StateFinished, StateOf(sh))
}

func TestFinishAutoClosesOpenBreak(t *testing.T) {
	provider := &countingProvider{}
	f := newFixture(t, provider)
	ctx := context.Background()

	_, err := f.clock.Start(ctx, f.employeeID, f.projectID, "")
	require.NoError(t, err)

	f.advance(time.Hour)
	_, err = f.clock.ToggleBreak(ctx, f.employeeID)
	require.NoError(t, err)

	f.advance(time.Hour)
	t2 := *f.at
	captures := provider.calls
	sh, err := f.clock.Finish(ctx, f.employeeID)
	require.NoError(t, err)

	require.NotNil(t, sh.FinishTS)
	assert.True(t, sh.FinishTS.Equal(t2))
	require.Len(t, sh.Breaks, 1)
	require.NotNil(t, sh.Breaks[0].EndTS)
	assert.True(t, sh.Breaks[0].EndTS.Equal(t2), "finish must close the dangling break")
	assert.Nil(t, sh.OpenBreak())

	assert.Equal(t, captures+1, provider.calls, "finish must capture location once")
	require.NotNil(t, sh.Breaks[0].EndGeo)
	require.NotNil(t, sh.FinishGeo)
	assert.Equal(t, *sh.FinishGeo, *sh.Breaks[0].EndGeo, "break close and finish share the capture")
}

func TestBreakParity(t *testing.T) {
	tests := []struct {
		name      string
		toggles   int
		wantOpen  int
		wantTotal int
	}{
		{"one toggle", 1, 1, 1},
		{"two toggles", 2, 0, 1},
		{"three toggles", 3, 1, 2},
		{"four toggles", 4, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, geo.Unavailable{})
			ctx := context.Background()

			_, err := f.clock.Start(ctx, f.employeeID, f.projectID, "")
			require.NoError(t, err)

			var sh *store.Shift
			for i := 0; i < tt.toggles; i++ {
				f.advance(10 * time.Minute)
				sh, err = f.clock.ToggleBreak(ctx, f.employeeID)
				require.NoError(t, err)
			}

			assert.Len(t, sh.Breaks, tt.wantTotal)
			open := 0
			for i, b := range sh.Breaks {
				if b.Open() {
					open++
					assert.Equal(t, len(sh.Breaks)-1, i, "only the last break may be open")
				}
			}
			assert.Equal(t, tt.wantOpen, open)
		})
	}
}

func TestFinishLeavesNoOpenBreaks(t *testing.T) {
	for _, toggles := range []int{0, 1, 2, 3} {
		f := newFixture(t, geo.Unavailable{})
		ctx := context.Background()

		_, err := f.clock.Start(ctx, f.employeeID, f.projectID, "")
		require.NoError(t, err)
		for i := 0; i < toggles; i++ {
			f.advance(5 * time.Minute)
			_, err = f.clock.ToggleBreak(ctx, f.employeeID)
			require.NoError(t, err)
		}

		f.advance(5 * time.Minute)
		sh, err := f.clock.Finish(ctx, f.employeeID)
		require.NoError(t, err)

		assert.Nil(t, sh.OpenBreak(), "toggles=%d", toggles)
		for _, b := range sh.Breaks {
			assert.False(t, b.Open(), "toggles=%d", toggles)
		}
	}
}

func TestTwoEmployeesIndependentShifts(t *testing.T) {
	f := newFixture(t, geo.Unavailable{})
	ctx := context.Background()

	second, err := f.store.CreateEmployee("Grace Hopper", "foreman")
	require.NoError(t, err)

	sh1, err := f.clock.Start(ctx, f.employeeID, f.projectID, "")
	require.NoError(t, err)
	sh2, err := f.clock.Start(ctx, second.ID, f.projectID, "")
	require.NoError(t, err)

	assert.NotEqual(t, sh1.ID, sh2.ID)
	assert.True(t, sh1.Open())
	assert.True(t, sh2.Open())

	// Finishing one employee's shift leaves the other open.
	f.advance(time.Hour)
	_, err = f.clock.Finish(ctx, f.employeeID)
	require.NoError(t, err)

	open1, err := f.clock.Open(f.employeeID)
	require.NoError(t, err)
	assert.Nil(t, open1)
	open2, err := f.clock.Open(second.ID)
	require.NoError(t, err)
	require.NotNil(t, open2)
	assert.Equal(t, sh2.ID, open2.ID)
}

func TestGeoUnavailableNeverBlocksTransitions(t *testing.T) {
	f := newFixture(t, geo.Unavailable{})
	ctx := context.Background()

	sh, err := f.clock.Start(ctx, f.employeeID, f.projectID, "")
	require.NoError(t, err)
	assert.Nil(t, sh.StartGeo)

	f.advance(time.Minute)
	sh, err = f.clock.ToggleBreak(ctx, f.employeeID)
	require.NoError(t, err)
	assert.Nil(t, sh.Breaks[0].StartGeo)

	f.advance(time.Minute)
	sh, err = f.clock.Finish(ctx, f.employeeID)
	require.NoError(t, err)
	assert.Nil(t, sh.FinishGeo)
	assert.Equal(t, StateFinished, StateOf(sh))
}

func TestAtMostOneOpenShift(t *testing.T) {
	f := newFixture(t, geo.Unavailable{})
	ctx := context.Background()

	// Arbitrary event storm: starts, toggles and finishes interleaved.
	ops := []string{"start", "break", "start", "break", "finish", "finish", "start", "break", "break", "finish", "start"}
	for _, op := range ops {
		f.advance(time.Minute)
		var err error
		switch op {
		case "start":
			_, err = f.clock.Start(ctx, f.employeeID, f.projectID, "")
		case "break":
			_, err = f.clock.ToggleBreak(ctx, f.employeeID)
		case "finish":
			_, err = f.clock.Finish(ctx, f.employeeID)
		}
		require.NoError(t, err)

		shifts, err := f.store.ListShifts(store.ShiftFilter{EmployeeID: &f.employeeID})
		require.NoError(t, err)
		open := 0
		for _, sh := range shifts {
			if sh.Open() {
				open++
			}
		}
		assert.LessOrEqual(t, open, 1, "after op %q", op)
	}
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateIdle, StateOf(nil))

	open := &store.Shift{}
	assert.Equal(t, StateWorking, StateOf(open))

	onBreak := &store.Shift{Breaks: []store.Break{{}}}
	assert.Equal(t, StateOnBreak, StateOf(onBreak))

	end := time.Now()
	closedBreak := &store.Shift{Breaks: []store.Break{{EndTS: &end}}}
	assert.Equal(t, StateWorking, StateOf(closedBreak))

	finished := &store.Shift{FinishTS: &end}
	assert.Equal(t, StateFinished, StateOf(finished))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "working", StateWorking.String())
	assert.Equal(t, "on break", StateOnBreak.String())
	assert.Equal(t, "finished", StateFinished.String())
}
