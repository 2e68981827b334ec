package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewtime/shiftclock/internal/sched"
	"github.com/crewtime/shiftclock/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	employees  []store.Employee
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	currentEmployee *int64
	reminderMorning *string
	reminderEvening *string
	reportTime      *string
	reportURL       *string
	geoURL          *string
}

func newSettingsModel(s *store.Store) settingsModel {
	var emp int64
	rm, re, rt, ru, gu := "", "", "", "", ""
	return settingsModel{
		store:           s,
		currentEmployee: &emp,
		reminderMorning: &rm,
		reminderEvening: &re,
		reportTime:      &rt,
		reportURL:       &ru,
		geoURL:          &gu,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings  []store.Setting
	employees []store.Employee
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		employees, _ := s.store.ListEmployees()
		return settingsDataMsg{settings: settings, employees: employees}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.employees = msg.employees
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func validTimeOfDay(v string) error {
	_, err := sched.ParseDaily(v)
	return err
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	// Load current values
	*s.currentEmployee, _ = strconv.ParseInt(s.getVal("current_employee", "0"), 10, 64)
	*s.reminderMorning = s.getVal("reminder_morning", "08:55")
	*s.reminderEvening = s.getVal("reminder_evening", "17:05")
	*s.reportTime = s.getVal("report_time", "18:00")
	*s.reportURL = s.getVal("report_url", "")
	*s.geoURL = s.getVal("geo_url", "http://ip-api.com/json")

	empOptions := []huh.Option[int64]{huh.NewOption("(none)", int64(0))}
	for _, e := range s.employees {
		empOptions = append(empOptions, huh.NewOption(e.Name, e.ID))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Current employee").Options(empOptions...).Value(s.currentEmployee),
		).Title("Clock"),
		huh.NewGroup(
			huh.NewInput().Title("Morning reminder (HH:MM)").Value(s.reminderMorning).Validate(validTimeOfDay),
			huh.NewInput().Title("Evening reminder (HH:MM)").Value(s.reminderEvening).Validate(validTimeOfDay),
			huh.NewInput().Title("Daily report time (HH:MM)").Value(s.reportTime).Validate(validTimeOfDay),
			huh.NewInput().Title("Daily report URL").Value(s.reportURL),
			huh.NewInput().Title("Geolocation URL").Value(s.geoURL),
		).Title("Schedules"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.saveSettings()
		return s, tea.Batch(s.refresh(), func() tea.Msg { return settingsSavedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() {
	s.store.SetSetting("current_employee", strconv.FormatInt(*s.currentEmployee, 10))
	s.store.SetSetting("reminder_morning", *s.reminderMorning)
	s.store.SetSetting("reminder_evening", *s.reminderEvening)
	s.store.SetSetting("report_time", *s.reportTime)
	s.store.SetSetting("report_url", *s.reportURL)
	s.store.SetSetting("geo_url", *s.geoURL)
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(20).Render(setting.Key)
		value := highlightStyle.Render(s.formatValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) formatValue(k, v string) string {
	if k == "current_employee" {
		id, _ := strconv.ParseInt(v, 10, 64)
		if id == 0 {
			return "(none)"
		}
		for _, e := range s.employees {
			if e.ID == id {
				return e.Name
			}
		}
	}
	return v
}
