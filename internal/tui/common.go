package tui

import (
	"fmt"
	"time"

	"github.com/crewtime/shiftclock/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewClock viewState = iota
	viewCrew
	viewHistory
	viewReports
	viewSettings
)

var viewNames = []string{"Clock", "Crew", "History", "Reports", "Settings"}

// --- Messages ---

type shiftChangedMsg struct {
	shift *store.Shift
	verb  string // "started", "break started", "break ended", "finished"
}

type employeeCreatedMsg struct {
	employee *store.Employee
}

type projectCreatedMsg struct {
	project *store.Project
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type reportSentMsg struct {
	date string
	err  error
}

type settingsSavedMsg struct{}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// locationLine renders a geotag for display, with a placeholder when
// the capture came back empty.
func locationLine(g *store.GeoPoint) string {
	if g == nil {
		return "location unavailable"
	}
	return g.String()
}
