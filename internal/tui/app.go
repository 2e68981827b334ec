package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewtime/shiftclock/internal/export"
	"github.com/crewtime/shiftclock/internal/geo"
	"github.com/crewtime/shiftclock/internal/lifecycle"
	"github.com/crewtime/shiftclock/internal/report"
	"github.com/crewtime/shiftclock/internal/sched"
	"github.com/crewtime/shiftclock/internal/store"
)

type appConfig struct {
	employeeID int64
	morning    sched.Daily
	evening    sched.Daily
	reportAt   sched.Daily
	reportURL  string
	geoURL     string
}

func loadConfig(s *store.Store) appConfig {
	cfg := appConfig{
		morning:  sched.Daily{Hour: 8, Minute: 55},
		evening:  sched.Daily{Hour: 17, Minute: 5},
		reportAt: sched.Daily{Hour: 18},
		geoURL:   "http://ip-api.com/json",
	}

	get := func(k string) string {
		v, _ := s.GetSetting(k)
		return v
	}

	cfg.employeeID, _ = strconv.ParseInt(get("current_employee"), 10, 64)
	if d, err := sched.ParseDaily(get("reminder_morning")); err == nil {
		cfg.morning = d
	}
	if d, err := sched.ParseDaily(get("reminder_evening")); err == nil {
		cfg.evening = d
	}
	if d, err := sched.ParseDaily(get("report_time")); err == nil {
		cfg.reportAt = d
	}
	cfg.reportURL = get("report_url")
	if v := get("geo_url"); v != "" {
		cfg.geoURL = v
	}
	return cfg
}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	reportLog io.Writer
	cfg       appConfig

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	// Daily schedules. Read-only consumers of the store, decoupled
	// from shift transitions.
	morningReminder *sched.Trigger
	eveningReminder *sched.Trigger
	reportTrigger   *sched.Trigger

	clockView clockModel
	crew      crewModel
	history   historyModel
	reports   reportsModel
	settings  settingsModel

	help   help.Model
	status string
}

// NewApp builds the root model. Report send outcomes go to reportLog.
func NewApp(s *store.Store, reportLog io.Writer) App {
	h := help.New()
	h.ShowAll = false

	cfg := loadConfig(s)
	clock := lifecycle.NewClock(s, geo.NewHTTPProvider(cfg.geoURL))
	now := time.Now()

	cv := newClockModel(s, clock)
	cv.setEmployee(cfg.employeeID)

	return App{
		store:           s,
		reportLog:       reportLog,
		cfg:             cfg,
		activeView:      viewClock,
		morningReminder: sched.NewTrigger(cfg.morning, now),
		eveningReminder: sched.NewTrigger(cfg.evening, now),
		reportTrigger:   sched.NewTrigger(cfg.reportAt, now),
		clockView:       cv,
		crew:            newCrewModel(s),
		history:         newHistoryModel(s),
		reports:         newReportsModel(s),
		settings:        newSettingsModel(s),
		help:            h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.clockView.loadData(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.clockView.setSize(a.width, contentHeight)
		a.crew.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewClock
			return a, a.clockView.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewCrew
			return a, a.crew.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())

		now := time.Time(msg)
		if a.morningReminder.Fire(now) {
			a.status = "Reminder: time to clock in"
		}
		if a.eveningReminder.Fire(now) {
			a.status = "Reminder: time to clock out"
		}
		if a.reportTrigger.Fire(now) && a.cfg.reportURL != "" {
			cmds = append(cmds, a.sendDailyReport(now))
		}

		// Route ticks to the clock view so the elapsed readout moves.
		var cmd tea.Cmd
		a.clockView, cmd = a.clockView.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.status = errorStyle.Render(msg.text)
		}
		return a, nil

	case shiftChangedMsg:
		a.status = "Shift " + msg.verb
		var cmd tea.Cmd
		a.clockView, cmd = a.clockView.update(msg)
		return a, cmd

	case employeeCreatedMsg:
		a.status = "Added " + msg.employee.Name
		return a, a.crew.refresh()

	case projectCreatedMsg:
		a.status = "Added project " + msg.project.Name
		return a, a.crew.refresh()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case reportSentMsg:
		if msg.err != nil {
			a.status = "Daily report failed (will retry tomorrow)"
		} else {
			a.status = "Daily report sent for " + msg.date
		}
		return a, nil

	case settingsSavedMsg:
		a.reloadConfig()
		return a, a.clockView.loadData()
	}

	return a.updateActiveView(msg)
}

// reloadConfig rebuilds the geo provider, lifecycle clock and daily
// triggers from the persisted settings.
func (a *App) reloadConfig() {
	a.cfg = loadConfig(a.store)
	clock := lifecycle.NewClock(a.store, geo.NewHTTPProvider(a.cfg.geoURL))
	a.clockView.clock = clock
	a.clockView.setEmployee(a.cfg.employeeID)

	now := time.Now()
	a.morningReminder = sched.NewTrigger(a.cfg.morning, now)
	a.eveningReminder = sched.NewTrigger(a.cfg.evening, now)
	a.reportTrigger = sched.NewTrigger(a.cfg.reportAt, now)
	a.status = "Settings saved"
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewClock:
		a.clockView, cmd = a.clockView.update(msg)
	case viewCrew:
		a.crew, cmd = a.crew.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewClock:
		return a.clockView.formActive
	case viewCrew:
		return a.crew.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewClock:
		return a.clockView.loadData()
	case viewCrew:
		return a.crew.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewClock:
		content = a.clockView.view()
	case viewCrew:
		content = a.crew.view()
	case viewHistory:
		content = a.history.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("shiftclock")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Shift indicator in footer
	shiftInfo := ""
	if sh := a.clockView.openShift; sh != nil {
		worked := formatSeconds(sh.WorkedSeconds(a.clockView.now))
		if sh.OpenBreak() != nil {
			shiftInfo = warningStyle.Render(" ⏸ " + worked)
		} else {
			shiftInfo = successStyle.Render(" ● " + worked)
		}
	}

	left := footerStyle.Render(helpView)
	right := shiftInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		rows, err := a.reportRows(store.ShiftFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("shiftclock-%s.csv", dateStr))
			if err := export.ToCSV(rows, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("shiftclock-%s.json", dateStr))
			if err := export.ToJSON(rows, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

// reportRows builds the shared report projection for the export sinks
// and the daily report sender.
func (a App) reportRows(f store.ShiftFilter) ([]export.Row, error) {
	shifts, err := a.store.ListShifts(f)
	if err != nil {
		return nil, err
	}

	employees := make(map[int64]*store.Employee)
	elist, err := a.store.ListEmployees()
	if err != nil {
		return nil, err
	}
	for i := range elist {
		employees[elist[i].ID] = &elist[i]
	}

	return export.Rows(shifts, employees), nil
}

func (a App) sendDailyReport(now time.Time) tea.Cmd {
	url := a.cfg.reportURL
	logw := a.reportLog
	return func() tea.Msg {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dayEnd := dayStart.Add(24 * time.Hour)
		date := dayStart.Format("2006-01-02")

		rows, err := a.reportRows(store.ShiftFilter{From: &dayStart, To: &dayEnd})
		if err != nil {
			return reportSentMsg{date: date, err: err}
		}

		sender := report.NewSender(url, logw)
		err = sender.Send(context.Background(), date, rows)
		return reportSentMsg{date: date, err: err}
	}
}
