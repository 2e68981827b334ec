package store

import (
	"strconv"
	"time"
)

// GeoPoint is a single GPS sample. A nil *GeoPoint means capture failed,
// was denied, or timed out.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// String renders the point as "lat,lng" for reports and display.
func (g *GeoPoint) String() string {
	if g == nil {
		return ""
	}
	return strconv.FormatFloat(g.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(g.Lng, 'f', -1, 64)
}

type Employee struct {
	ID   int64
	Name string
	Role string
}

type Project struct {
	ID      int64
	Name    string
	Address string
}

// Break is one rest interval inside a shift. EndTS is nil while the
// break is still running.
type Break struct {
	ID       int64
	ShiftID  string
	StartTS  time.Time
	StartGeo *GeoPoint
	EndTS    *time.Time
	EndGeo   *GeoPoint
}

// Open reports whether the break has not been closed yet.
func (b Break) Open() bool {
	return b.EndTS == nil
}

// Shift is one work period for an employee. FinishTS is nil while the
// shift is open; once set the shift is terminal.
type Shift struct {
	ID         string
	EmployeeID int64
	ProjectID  int64
	Date       string // local calendar day, YYYY-MM-DD
	StartTS    time.Time
	StartGeo   *GeoPoint
	FinishTS   *time.Time
	FinishGeo  *GeoPoint
	Notes      string
	Breaks     []Break
}

// Open reports whether the shift has no finish timestamp yet.
func (s Shift) Open() bool {
	return s.FinishTS == nil
}

// OpenBreak returns the last break if it is still running, else nil.
// Break state is derived from the interval list, never stored as a flag.
func (s *Shift) OpenBreak() *Break {
	if len(s.Breaks) == 0 {
		return nil
	}
	last := &s.Breaks[len(s.Breaks)-1]
	if last.Open() {
		return last
	}
	return nil
}

// BreakSeconds sums the shift's break intervals, counting an open
// break up to asOf.
func (s *Shift) BreakSeconds(asOf time.Time) int64 {
	var total int64
	for _, b := range s.Breaks {
		end := asOf
		if b.EndTS != nil {
			end = *b.EndTS
		}
		if end.After(b.StartTS) {
			total += int64(end.Sub(b.StartTS).Seconds())
		}
	}
	return total
}

// WorkedSeconds is the shift span up to asOf (or the finish timestamp)
// minus break time.
func (s *Shift) WorkedSeconds(asOf time.Time) int64 {
	end := asOf
	if s.FinishTS != nil {
		end = *s.FinishTS
	}
	if !end.After(s.StartTS) {
		return 0
	}
	worked := int64(end.Sub(s.StartTS).Seconds()) - s.BreakSeconds(end)
	if worked < 0 {
		worked = 0
	}
	return worked
}

type Setting struct {
	Key   string
	Value string
}

// ShiftFilter is used to filter shifts in queries.
type ShiftFilter struct {
	EmployeeID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
}

// DayTotal represents aggregated worked time per day.
type DayTotal struct {
	Date         string
	TotalSeconds int64
	ShiftCount   int
}
