// Package lifecycle implements the shift state machine: start, break
// toggle, and finish, each transition timestamped and geotagged.
//
// State is never stored explicitly. It is derived from the record:
// no open shift means idle, an open shift whose last break is closed
// means working, an open last break means on break. A finish timestamp
// makes the shift terminal.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crewtime/shiftclock/internal/geo"
	"github.com/crewtime/shiftclock/internal/store"
)

type State int

const (
	StateIdle State = iota
	StateWorking
	StateOnBreak
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateWorking:
		return "working"
	case StateOnBreak:
		return "on break"
	case StateFinished:
		return "finished"
	default:
		return "idle"
	}
}

// Clock drives shift transitions for one local crew. Every successful
// transition is persisted before it returns.
type Clock struct {
	store *store.Store
	geo   geo.Provider
	now   func() time.Time
}

func NewClock(s *store.Store, g geo.Provider) *Clock {
	return &Clock{store: s, geo: g, now: time.Now}
}

// StateOf derives the lifecycle state of a shift. A nil shift is idle.
func StateOf(sh *store.Shift) State {
	switch {
	case sh == nil:
		return StateIdle
	case !sh.Open():
		return StateFinished
	case sh.OpenBreak() != nil:
		return StateOnBreak
	default:
		return StateWorking
	}
}

// Open returns the employee's open shift, or nil when idle.
func (c *Clock) Open(employeeID int64) (*store.Shift, error) {
	return c.store.OpenShift(employeeID)
}

// Start opens a new shift for the employee. If a shift is already open
// the call is a no-op and returns the existing shift: duplicate UI
// events must not create a second open shift.
func (c *Clock) Start(ctx context.Context, employeeID, projectID int64, notes string) (*store.Shift, error) {
	open, err := c.store.OpenShift(employeeID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return open, nil
	}

	g := c.geo.Capture(ctx)
	now := c.now()
	sh := &store.Shift{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		ProjectID:  projectID,
		Date:       now.Local().Format("2006-01-02"),
		StartTS:    now,
		StartGeo:   g,
		Notes:      notes,
	}
	if err := c.store.InsertShift(sh); err != nil {
		return nil, err
	}
	return c.store.GetShift(sh.ID)
}

// ToggleBreak opens a break on the employee's open shift, or closes
// the running one. With no open shift the call is a no-op returning
// (nil, nil).
func (c *Clock) ToggleBreak(ctx context.Context, employeeID int64) (*store.Shift, error) {
	open, err := c.store.OpenShift(employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	g := c.geo.Capture(ctx)
	now := c.now()
	if ob := open.OpenBreak(); ob != nil {
		if err := c.store.CloseBreak(ob.ID, now, g); err != nil {
			return nil, err
		}
	} else {
		if _, err := c.store.AppendBreak(open.ID, now, g); err != nil {
			return nil, err
		}
	}
	return c.store.GetShift(open.ID)
}

// Finish closes the employee's open shift. A dangling open break is
// closed in the same transaction, reusing the single location capture
// for both the break end and the shift finish. With no open shift the
// call is a no-op returning (nil, nil).
func (c *Clock) Finish(ctx context.Context, employeeID int64) (*store.Shift, error) {
	open, err := c.store.OpenShift(employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	g := c.geo.Capture(ctx)
	now := c.now()
	if ob := open.OpenBreak(); ob != nil {
		if err := c.store.FinishShiftClosingBreak(open.ID, ob.ID, now, g); err != nil {
			return nil, err
		}
	} else if err := c.store.FinishShift(open.ID, now, g); err != nil {
		return nil, err
	}
	return c.store.GetShift(open.ID)
}
