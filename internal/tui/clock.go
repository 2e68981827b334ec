package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewtime/shiftclock/internal/lifecycle"
	"github.com/crewtime/shiftclock/internal/store"
)

type clockModel struct {
	store  *store.Store
	clock  *lifecycle.Clock
	width  int
	height int

	employeeID  int64
	employee    *store.Employee
	projects    []store.Project
	openShift   *store.Shift
	todayShifts []store.Shift
	now         time.Time

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formProject *int64
	formNotes   *string
}

func newClockModel(s *store.Store, clock *lifecycle.Clock) clockModel {
	var project int64
	notes := ""
	return clockModel{
		store:       s,
		clock:       clock,
		now:         time.Now(),
		formProject: &project,
		formNotes:   &notes,
	}
}

func (c *clockModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c *clockModel) setEmployee(id int64) {
	c.employeeID = id
}

type clockDataMsg struct {
	employee    *store.Employee
	projects    []store.Project
	openShift   *store.Shift
	todayShifts []store.Shift
}

func (c clockModel) loadData() tea.Cmd {
	return func() tea.Msg {
		var employee *store.Employee
		if c.employeeID != 0 {
			employee, _ = c.store.GetEmployee(c.employeeID)
		}
		projects, _ := c.store.ListProjects()

		var openShift *store.Shift
		if c.employeeID != 0 {
			openShift, _ = c.store.OpenShift(c.employeeID)
		}

		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dayEnd := dayStart.Add(24 * time.Hour)
		todayShifts, _ := c.store.ListShifts(store.ShiftFilter{From: &dayStart, To: &dayEnd})

		return clockDataMsg{
			employee:    employee,
			projects:    projects,
			openShift:   openShift,
			todayShifts: todayShifts,
		}
	}
}

func (c clockModel) update(msg tea.Msg) (clockModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case clockDataMsg:
		c.employee = msg.employee
		c.projects = msg.projects
		c.openShift = msg.openShift
		c.todayShifts = msg.todayShifts
		return c, nil

	case shiftChangedMsg:
		c.openShift = msg.shift
		if msg.shift != nil && !msg.shift.Open() {
			c.openShift = nil
		}
		return c, c.loadData()

	case tickMsg:
		c.now = time.Time(msg)
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			// Start is disabled while a shift is open.
			if c.openShift != nil {
				return c, nil
			}
			if c.employeeID == 0 {
				return c, status("Pick a current employee in Settings first", true)
			}
			if len(c.projects) == 0 {
				return c, status("No projects yet. Press 2 to go to Crew and create one.", true)
			}
			return c.showStartForm()

		case key.Matches(msg, keys.Break):
			if c.openShift == nil {
				return c, nil
			}
			return c, c.toggleBreak()

		case key.Matches(msg, keys.Finish):
			if c.openShift == nil {
				return c, nil
			}
			return c, c.finishShift()
		}
	}
	return c, nil
}

func (c clockModel) showStartForm() (clockModel, tea.Cmd) {
	*c.formProject = c.projects[0].ID
	*c.formNotes = ""

	options := make([]huh.Option[int64], 0, len(c.projects))
	for _, p := range c.projects {
		label := p.Name
		if p.Address != "" {
			label += " — " + p.Address
		}
		options = append(options, huh.NewOption(label, p.ID))
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Project").Options(options...).Value(c.formProject),
			huh.NewInput().Title("Notes").Value(c.formNotes),
		).Title("Start Shift"),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c clockModel) updateForm(msg tea.Msg) (clockModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		return c, c.startShift(*c.formProject, *c.formNotes)
	}

	return c, cmd
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}

func (c clockModel) startShift(projectID int64, notes string) tea.Cmd {
	return func() tea.Msg {
		sh, err := c.clock.Start(context.Background(), c.employeeID, projectID, notes)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return shiftChangedMsg{shift: sh, verb: "started"}
	}
}

func (c clockModel) toggleBreak() tea.Cmd {
	return func() tea.Msg {
		sh, err := c.clock.ToggleBreak(context.Background(), c.employeeID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		if sh == nil {
			return statusMsg{text: "No open shift"}
		}
		verb := "break ended"
		if lifecycle.StateOf(sh) == lifecycle.StateOnBreak {
			verb = "break started"
		}
		return shiftChangedMsg{shift: sh, verb: verb}
	}
}

func (c clockModel) finishShift() tea.Cmd {
	return func() tea.Msg {
		sh, err := c.clock.Finish(context.Background(), c.employeeID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		if sh == nil {
			return statusMsg{text: "No open shift"}
		}
		return shiftChangedMsg{shift: sh, verb: "finished"}
	}
}

// lastGeo is the geotag of the most recent transition edge, for the
// location line under the clock.
func (c clockModel) lastGeo() *store.GeoPoint {
	sh := c.openShift
	if sh == nil {
		return nil
	}
	if ob := sh.OpenBreak(); ob != nil {
		return ob.StartGeo
	}
	if n := len(sh.Breaks); n > 0 {
		return sh.Breaks[n-1].EndGeo
	}
	return sh.StartGeo
}

func (c clockModel) view() string {
	if c.width < 20 {
		return "Terminal too small"
	}

	contentWidth := c.width - 4

	var panels []string
	panels = append(panels, c.renderClockPanel(contentWidth))
	if c.formActive && c.form != nil {
		panels = append(panels, activePanelStyle.Width(contentWidth).Render(c.form.View()))
	} else {
		panels = append(panels, c.renderTodayPanel(contentWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (c clockModel) renderClockPanel(w int) string {
	state := lifecycle.StateOf(c.openShift)

	var readout, indicator string
	switch state {
	case lifecycle.StateWorking:
		worked := c.openShift.WorkedSeconds(c.now)
		readout = clockWorkingStyle.Width(w - 6).Render(formatSeconds(worked))
		indicator = successStyle.Render("●  WORKING")
	case lifecycle.StateOnBreak:
		worked := c.openShift.WorkedSeconds(c.now)
		readout = clockBreakStyle.Width(w - 6).Render(formatSeconds(worked))
		indicator = warningStyle.Render("⏸  ON BREAK")
	default:
		readout = clockIdleStyle.Width(w - 6).Render("00:00:00")
		indicator = mutedStyle.Render("■  IDLE")
	}

	who := mutedStyle.Render("no employee selected")
	if c.employee != nil {
		who = highlightStyle.Render(c.employee.Name)
		if c.employee.Role != "" {
			who += mutedStyle.Render(" · " + c.employee.Role)
		}
	}

	lines := []string{readout, indicator, who}

	if c.openShift != nil {
		if p, err := c.store.GetProject(c.openShift.ProjectID); err == nil {
			lines = append(lines, mutedStyle.Render(p.Name))
		}
		breakSecs := c.openShift.BreakSeconds(c.now)
		if breakSecs > 0 {
			lines = append(lines, mutedStyle.Render("breaks "+formatSeconds(breakSecs)))
		}
		lines = append(lines, mutedStyle.Render("@ "+locationLine(c.lastGeo())))
	} else {
		lines = append(lines, mutedStyle.Render("Press s to start a shift"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if state == lifecycle.StateIdle {
		return panelStyle.Width(w).Render(content)
	}
	return activePanelStyle.Width(w).Render(content)
}

func (c clockModel) renderTodayPanel(w int) string {
	title := titleStyle.Render("Today")
	if len(c.todayShifts) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No shifts today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, sh := range c.todayShifts {
		name := "?"
		if e, err := c.store.GetEmployee(sh.EmployeeID); err == nil {
			name = e.Name
		}
		startStr := sh.StartTS.Local().Format("15:04")
		status := "✓"
		dur := formatSeconds(sh.WorkedSeconds(c.now))
		if sh.Open() {
			status = "●"
		}
		row := fmt.Sprintf("  %s %s  %-16s %s  (%d breaks)", status, startStr, name, dur, len(sh.Breaks))
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
